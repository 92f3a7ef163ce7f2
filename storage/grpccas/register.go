package grpccas

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lumen.art/node/storage"
	"lumen.art/node/storage/casregistry"
)

func init() {
	casregistry.MustRegister(casregistry.Backend{
		Kind:        "grpc",
		Description: "remote node artifact store over gRPC (options: target, dial_timeout, timeout, max_msg_bytes)",
		Open: func(opts map[string]string) (storage.CAS, func() error, error) {
			target := strings.TrimSpace(opts["target"])
			if target == "" {
				return nil, nil, fmt.Errorf("grpccas: missing target option")
			}

			dialTimeout := 5 * time.Second
			if v := opts["dial_timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpccas: bad dial_timeout: %w", err)
				}
				dialTimeout = d
			}

			var rpcTimeout time.Duration
			if v := opts["timeout"]; v != "" {
				d, err := time.ParseDuration(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpccas: bad timeout: %w", err)
				}
				rpcTimeout = d
			}

			var maxMsgBytes int
			if v := opts["max_msg_bytes"]; v != "" {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, nil, fmt.Errorf("grpccas: bad max_msg_bytes: %w", err)
				}
				maxMsgBytes = n
			}

			client, err := Dial(target, DialOptions{Timeout: dialTimeout, MaxMsgBytes: maxMsgBytes})
			if err != nil {
				return nil, nil, err
			}
			client.Timeout = rpcTimeout
			return client, client.Close, nil
		},
	})
}
