package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	"lumen.art/node/attest"
	"lumen.art/node/canon"
	"lumen.art/node/engine"
	"lumen.art/node/frames"
	"lumen.art/node/internal/config"
	"lumen.art/node/keys"
	"lumen.art/node/ledger"
	"lumen.art/node/model"
	"lumen.art/node/quota"
	"lumen.art/node/storage"
	"lumen.art/node/storage/bundle"
	"lumen.art/node/storage/casregistry"
	"lumen.art/node/storage/grpccas"

	_ "lumen.art/node/storage/ipfs"
	_ "lumen.art/node/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "render":
		return cmdRender(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "attest":
		return cmdAttest(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "export":
		return cmdExport(args[1:], out, errOut)
	case "import":
		return cmdImport(args[1:], out, errOut)
	case "serve-cas":
		return cmdServeCAS(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "lumen-node: canonical execution node for generative-art snapshots")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  lumen-node render [--config <file>] [--in <snapshot.json>] [--out-dir <dir>] [--caller <key>]")
	fmt.Fprintln(w, "  lumen-node verify [--in <bundle.json>]")
	fmt.Fprintln(w, "  lumen-node attest [--config <file>] [--in <bundle.json>] [--signer <name> | --seed-hex <64hex> | --key-file <path>]")
	fmt.Fprintln(w, "  lumen-node hash [--in <value.json>]")
	fmt.Fprintln(w, "  lumen-node export --out <pack.tar> [--attestation <file>] [--label name=CID ...] <CID> ...")
	fmt.Fprintln(w, "  lumen-node import --in <pack.tar> [--config <file>]")
	fmt.Fprintln(w, "  lumen-node serve-cas [--config <file>] [--listen <addr>] [--list-backends]")
	fmt.Fprintln(w, "  lumen-node key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  lumen-node key derive --name <name> --purpose <purpose> [--force]")
	fmt.Fprintln(w, "  lumen-node key list")
	fmt.Fprintln(w, "  lumen-node key export --name <name> [--purpose <purpose>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --in defaults to stdin; pass - explicitly to force it")
	fmt.Fprintln(w, "  - the config path can also come from $LUMEN_NODE_CONFIG")
	fmt.Fprintln(w, "  - seeds are 32 bytes (64 hex chars); key files live under ~/.lumen/keys (0600)")
	fmt.Fprintln(w, "  - verify exits 0 for a valid bundle, 1 for an invalid one")
}

func newLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// buildEngine wires the engine's collaborators from config. The returned
// cleanup closes everything the call opened. signKey may be nil.
func buildEngine(cfg config.Config, log zerolog.Logger, signKey ed25519.PrivateKey) (*engine.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	ecfg := engine.Config{
		Node: attest.NodeIdentity{
			Name:     cfg.Node.Name,
			Version:  cfg.Node.Version,
			Platform: cfg.Node.Platform,
		},
		SignKey:     signKey,
		ScratchRoot: cfg.Render.ScratchRoot,
		Encoder:     frames.FFmpeg{Path: cfg.Render.FFmpeg},
		Timeout:     cfg.Render.Timeout.Std(),
		Logger:      log,
	}

	if cfg.Quota.Limit > 0 {
		ecfg.Gate = quota.NewMemoryGate(cfg.Quota.Limit)
	}

	if cfg.Ledger.Path != "" {
		led, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = led.Close() })
		ecfg.Ledger = led
	}

	if cfg.Storage.Backend.Kind != "" {
		store, closeFn, err := config.OpenBackend(cfg.Storage.Backend)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if closeFn != nil {
			closers = append(closers, func() { _ = closeFn() })
		}
		ecfg.Store = store
	}

	if len(cfg.Replicas) > 0 {
		replicas, closeAll, err := config.OpenReplicas(cfg.Replicas)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, closeAll)
		ecfg.Replicas = replicas
	}

	e := engine.New(ecfg)
	closers = append(closers, e.Close)
	return e, cleanup, nil
}

func cmdRender(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "config file path")
	in := fs.String("in", "", "snapshot JSON file (default stdin)")
	outDir := fs.String("out-dir", "", "write artifact files into this directory")
	caller := fs.String("caller", "cli", "caller key for quota accounting")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	log := newLogger(cfg.LogLevel, errOut)

	data, err := readInput(*in)
	if err != nil {
		fmt.Fprintf(errOut, "read snapshot: %v\n", err)
		return 1
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(errOut, "parse snapshot: %v\n", err)
		return 1
	}
	if snap.Mode == "" {
		snap.Mode = model.ModeStatic
	}

	e, cleanup, err := buildEngine(cfg, log, nil)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer cleanup()

	exec, err := e.Execute(context.Background(), *caller, snap)
	if err != nil {
		fmt.Fprintf(errOut, "execute: %v\n", err)
		return 1
	}

	if *outDir != "" {
		if err := writeArtifacts(*outDir, exec.Result); err != nil {
			fmt.Fprintf(errOut, "write artifacts: %v\n", err)
			return 1
		}
	}

	summary := map[string]any{
		"mode":       exec.Result.Mode,
		"inputHash":  exec.InputHash,
		"outputHash": exec.OutputHash,
	}
	if exec.Result.Mode == model.ModeLoop {
		summary["animationHash"] = exec.Result.AnimationHash
		summary["posterHash"] = exec.Result.PosterHash
	} else {
		summary["imageHash"] = exec.Result.ImageHash
	}
	if len(exec.ArtifactCIDs) > 0 {
		cids := make(map[string]string, len(exec.ArtifactCIDs))
		for label, id := range exec.ArtifactCIDs {
			cids[label] = id.String()
		}
		summary["artifactCids"] = cids
	}
	return printJSON(out, errOut, summary)
}

func writeArtifacts(dir string, res *model.RenderResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if res.Mode == model.ModeLoop {
		if err := os.WriteFile(filepath.Join(dir, "animation.mp4"), res.VideoBytes, 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dir, "poster.png"), res.PosterBytes, 0o644)
	}
	return os.WriteFile(filepath.Join(dir, "image.png"), res.ImageBytes, 0o644)
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	in := fs.String("in", "", "bundle JSON file (default stdin)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	data, err := readInput(*in)
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	b, err := attest.ParseBundle(data)
	if err != nil {
		fmt.Fprintf(errOut, "parse bundle: %v\n", err)
		return 1
	}

	res := attest.VerifyBundle(b)
	if rc := printJSON(out, errOut, res); rc != 0 {
		return rc
	}
	if !res.Valid {
		return 1
	}
	return 0
}

func cmdAttest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "config file path")
	in := fs.String("in", "", "bundle JSON file (default stdin)")
	signer := fs.String("signer", "", "stored key name to sign with")
	purpose := fs.String("purpose", "attest", "stored key purpose (with --signer)")
	seedHex := fs.String("seed-hex", "", "inline ed25519 seed (64 hex chars)")
	keyFile := fs.String("key-file", "", "seed file path")
	keysDir := fs.String("keys-dir", "", "keystore directory (default ~/.lumen/keys)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	log := newLogger(cfg.LogLevel, errOut)

	data, err := readInput(*in)
	if err != nil {
		fmt.Fprintf(errOut, "read bundle: %v\n", err)
		return 1
	}
	b, err := attest.ParseBundle(data)
	if err != nil {
		fmt.Fprintf(errOut, "parse bundle: %v\n", err)
		return 1
	}

	// Signing is optional; an unkeyed node still attests.
	var signKey ed25519.PrivateKey
	if *signer != "" || *seedHex != "" || *keyFile != "" {
		ks, err := keys.OpenStore(*keysDir)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		seed, err := ks.LoadSeed(*seedHex, *signer, *purpose, *keyFile)
		if err != nil {
			fmt.Fprintf(errOut, "load signing key: %v\n", err)
			return 1
		}
		signKey = ed25519.NewKeyFromSeed(seed)
	}

	e, cleanup, err := buildEngine(cfg, log, signKey)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer cleanup()

	a, inserted, err := e.Attest(context.Background(), b)
	if err != nil {
		fmt.Fprintf(errOut, "attest: %v\n", err)
		return 1
	}
	hash, err := a.Hash()
	if err != nil {
		fmt.Fprintf(errOut, "attestation hash: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, map[string]any{
		"attestation":     a,
		"attestationHash": hash,
		"inserted":        inserted,
	})
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)
	in := fs.String("in", "", "JSON value file (default stdin)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	data, err := readInput(*in)
	if err != nil {
		fmt.Fprintf(errOut, "read value: %v\n", err)
		return 1
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		fmt.Fprintf(errOut, "parse value: %v\n", err)
		return 1
	}
	canonical, err := canon.Canon(v)
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	return printJSON(out, errOut, map[string]any{
		"canonical": string(canonical),
		"sha256":    canon.SHA256Hex(canonical),
	})
}

func cmdExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "config file path")
	outPath := fs.String("out", "", "output pack file")
	attestationPath := fs.String("attestation", "", "attestation JSON to embed as a manifest")
	var labels labelFlags
	fs.Var(&labels, "label", "name=CID label (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *outPath == "" || fs.NArg() == 0 {
		fmt.Fprintln(errOut, "usage: lumen-node export --out <pack.tar> [--attestation <file>] [--label name=CID ...] <CID> ...")
		return 2
	}

	store, closeFn, rc := openConfiguredStore(*configPath, errOut)
	if rc != 0 {
		return rc
	}
	defer closeFn()

	var ids []cid.Cid
	for _, arg := range fs.Args() {
		id, err := cid.Decode(arg)
		if err != nil {
			fmt.Fprintf(errOut, "bad CID %q: %v\n", arg, err)
			return 2
		}
		ids = append(ids, id)
	}

	opts := bundle.ExportOptions{IncludeIndex: true, Labels: labels.m}
	if *attestationPath != "" {
		doc, err := os.ReadFile(*attestationPath)
		if err != nil {
			fmt.Fprintf(errOut, "read attestation: %v\n", err)
			return 1
		}
		opts.Manifests = map[string][]byte{"attestation.json": doc}
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer f.Close()

	if err := bundle.Export(f, store, ids, opts); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintf(out, "exported %d blocks to %s\n", len(ids), *outPath)
	return 0
}

func cmdImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "config file path")
	in := fs.String("in", "", "pack file (default stdin)")
	ignoreUnknown := fs.Bool("ignore-unknown", false, "skip unrecognized pack entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store, closeFn, rc := openConfiguredStore(*configPath, errOut)
	if rc != 0 {
		return rc
	}
	defer closeFn()

	var r io.Reader = os.Stdin
	if *in != "" && *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		defer f.Close()
		r = f
	}

	if err := bundle.ImportWithOptions(r, store, bundle.ImportOptions{IgnoreUnknown: *ignoreUnknown}); err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, "import complete")
	return 0
}

func openConfiguredStore(configPath string, errOut io.Writer) (storage.CAS, func(), int) {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return nil, nil, 1
	}
	if cfg.Storage.Backend.Kind == "" {
		fmt.Fprintln(errOut, "no storage backend configured (set [storage.backend] in the config)")
		return nil, nil, 2
	}
	store, closeFn, err := config.OpenBackend(cfg.Storage.Backend)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return nil, nil, 1
	}
	cleanup := func() {
		if closeFn != nil {
			_ = closeFn()
		}
	}
	return store, cleanup, 0
}

func cmdServeCAS(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("serve-cas", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "config file path")
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	listBackends := fs.Bool("list-backends", false, "list registered backends and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listBackends {
		for _, b := range casregistry.List() {
			if b.Description == "" {
				fmt.Fprintln(out, b.Kind)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Kind, b.Description)
		}
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	log := newLogger(cfg.LogLevel, errOut)

	store, closeFn, rc := openConfiguredStore(*configPath, errOut)
	if rc != 0 {
		return rc
	}
	defer closeFn()

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: store})

	log.Info().
		Str("addr", lis.Addr().String()).
		Str("backend", cfg.Storage.Backend.Kind).
		Msg("artifact store listening")
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: lumen-node key <init|derive|list|export> ...")
		return 2
	}

	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("key init", flag.ContinueOnError)
		fs.SetOutput(errOut)
		name := fs.String("name", "", "key name")
		seedHex := fs.String("seed-hex", "", "ed25519 seed (64 hex chars); random when empty")
		keysDir := fs.String("keys-dir", "", "keystore directory")
		force := fs.Bool("force", false, "overwrite an existing key")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *name == "" {
			fmt.Fprintln(errOut, "key init: --name is required")
			return 2
		}

		var seed []byte
		if *seedHex != "" {
			var err error
			seed, err = keys.ParseSeedHex(*seedHex)
			if err != nil {
				fmt.Fprintf(errOut, "key init: %v\n", err)
				return 2
			}
		} else {
			seed = make([]byte, ed25519.SeedSize)
			if _, err := rand.Read(seed); err != nil {
				fmt.Fprintf(errOut, "key init: %v\n", err)
				return 1
			}
		}

		ks, err := keys.OpenStore(*keysDir)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		nodeKey, path, err := ks.InitRootKey(*name, seed, *force)
		if err != nil {
			fmt.Fprintf(errOut, "key init: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "%s\t%s\n", nodeKey, path)
		return 0

	case "derive":
		fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
		fs.SetOutput(errOut)
		name := fs.String("name", "", "root key name")
		purpose := fs.String("purpose", "", "purpose to derive")
		keysDir := fs.String("keys-dir", "", "keystore directory")
		force := fs.Bool("force", false, "overwrite an existing derived key")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *name == "" || *purpose == "" {
			fmt.Fprintln(errOut, "key derive: --name and --purpose are required")
			return 2
		}

		ks, err := keys.OpenStore(*keysDir)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		nodeKey, path, err := ks.DeriveForPurpose(*name, *purpose, *force)
		if err != nil {
			fmt.Fprintf(errOut, "key derive: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "%s\t%s\n", nodeKey, path)
		return 0

	case "list":
		fs := flag.NewFlagSet("key list", flag.ContinueOnError)
		fs.SetOutput(errOut)
		keysDir := fs.String("keys-dir", "", "keystore directory")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		ks, err := keys.OpenStore(*keysDir)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		entries, err := ks.List()
		if err != nil {
			fmt.Fprintf(errOut, "key list: %v\n", err)
			return 1
		}
		for _, e := range entries {
			if len(e.Purposes) == 0 {
				fmt.Fprintln(out, e.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", e.Name, strings.Join(e.Purposes, ","))
		}
		return 0

	case "export":
		fs := flag.NewFlagSet("key export", flag.ContinueOnError)
		fs.SetOutput(errOut)
		name := fs.String("name", "", "key name")
		purpose := fs.String("purpose", "", "purpose (root key when empty)")
		keysDir := fs.String("keys-dir", "", "keystore directory")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if *name == "" {
			fmt.Fprintln(errOut, "key export: --name is required")
			return 2
		}

		ks, err := keys.OpenStore(*keysDir)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		nodeKey, err := ks.ExportNodeKey(*name, *purpose)
		if err != nil {
			fmt.Fprintf(errOut, "key export: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, nodeKey)
		return 0

	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n", args[0])
		return 2
	}
}

func printJSON(out io.Writer, errOut io.Writer, v any) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

// labelFlags accumulates repeated name=CID flags.
type labelFlags struct {
	m map[string]cid.Cid
}

func (l *labelFlags) String() string { return "" }

func (l *labelFlags) Set(v string) error {
	name, cidStr, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=CID, got %q", v)
	}
	id, err := cid.Decode(cidStr)
	if err != nil {
		return fmt.Errorf("bad CID in label %q: %w", v, err)
	}
	if l.m == nil {
		l.m = make(map[string]cid.Cid)
	}
	l.m[name] = id
	return nil
}
