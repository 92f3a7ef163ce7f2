package localfs

import (
	"fmt"

	"lumen.art/node/storage"
	"lumen.art/node/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Kind:        "localfs",
		Description: "local filesystem artifact store (option: dir)",
		Open: func(opts map[string]string) (storage.CAS, func() error, error) {
			dir := opts["dir"]
			if dir == "" {
				return nil, nil, fmt.Errorf("localfs: missing dir option")
			}
			store, err := New(dir)
			return store, nil, err
		},
	})
}
