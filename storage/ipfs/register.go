package ipfs

import (
	"os"

	"lumen.art/node/storage"
	"lumen.art/node/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Kind:        "ipfs",
		Description: "local Kubo repo via the ipfs CLI (options: bin, ipfs_path)",
		Open: func(opts map[string]string) (storage.CAS, func() error, error) {
			o := Options{Bin: opts["bin"]}
			if p := opts["ipfs_path"]; p != "" {
				o.Env = append(os.Environ(), "IPFS_PATH="+p)
			}
			return New(o), nil, nil
		},
	})
}
