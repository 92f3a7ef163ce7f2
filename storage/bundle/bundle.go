// Package bundle exports and imports evidence packs.
//
// An evidence pack is a deterministic TAR holding the content-addressed
// blocks behind a render (artifact bytes, attestation documents) plus
// optional non-authoritative metadata: an index.json and named manifests.
// Exporting the same blocks always yields byte-identical pack bytes, so the
// pack itself can be stored, hashed, and replicated like any other artifact.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"lumen.art/node/cidutil"
	"lumen.art/node/storage"
)

// FormatVersion is the current pack index schema version.
const FormatVersion = 1

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls pack export behavior.
type ExportOptions struct {
	// Labels is optional metadata mapping names (e.g. "image", "poster",
	// "attestation") to CIDs. Labels are advisory; block bytes are the
	// authority.
	Labels map[string]cid.Cid

	// Manifests are optional named documents stored under manifests/.
	// The attestation JSON for a render typically travels here so a pack
	// is verifiable without a live node.
	Manifests map[string][]byte

	// IncludeIndex controls whether index.json is written.
	IncludeIndex bool
}

// Export writes a deterministic evidence pack containing the blocks for ids.
//
// Entry order is fixed (blocks sorted by CID, then manifests sorted by name,
// then index.json) and TAR headers are normalized. Every exported block is
// re-validated against its CID before it is written.
func Export(w io.Writer, cas storage.CAS, ids []cid.Cid, opts ExportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil store")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}

	cidStrings := make([]string, 0, len(uniq))
	for s := range uniq {
		cidStrings = append(cidStrings, s)
	}
	sort.Strings(cidStrings)

	tw := tar.NewWriter(w)

	blocks := make([]indexBlock, 0, len(cidStrings))
	for _, s := range cidStrings {
		id := uniq[s]
		b, err := cas.Get(id)
		if err != nil {
			_ = tw.Close()
			return err
		}
		got, err := cidutil.ArtifactCID(b)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if got != id {
			_ = tw.Close()
			return storage.ErrCIDMismatch
		}

		if err := writeEntry(tw, "blocks/"+id.String(), b); err != nil {
			_ = tw.Close()
			return err
		}
		blocks = append(blocks, indexBlock{CID: id.String(), Size: len(b)})
	}

	manifestNames := make([]string, 0, len(opts.Manifests))
	for name := range opts.Manifests {
		manifestNames = append(manifestNames, name)
	}
	sort.Strings(manifestNames)
	for _, name := range manifestNames {
		if name == "" || cleanTarPath(name) != name || strings.Contains(name, "/") {
			_ = tw.Close()
			return fmt.Errorf("bundle: invalid manifest name: %q", name)
		}
		if err := writeEntry(tw, "manifests/"+name, opts.Manifests[name]); err != nil {
			_ = tw.Close()
			return err
		}
	}

	if opts.IncludeIndex {
		idx := indexJSON{
			Version:   FormatVersion,
			CIDCodec:  "raw",
			Multihash: "sha2-256",
			Blocks:    blocks,
		}
		for _, name := range manifestNames {
			idx.Manifests = append(idx.Manifests, name)
		}

		if len(opts.Labels) > 0 {
			keys := make([]string, 0, len(opts.Labels))
			for k := range opts.Labels {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			labels := make([]indexLabel, 0, len(keys))
			for _, k := range keys {
				if k == "" {
					_ = tw.Close()
					return fmt.Errorf("bundle: empty label key")
				}
				v := opts.Labels[k]
				if !v.Defined() {
					_ = tw.Close()
					return storage.ErrInvalidCID
				}
				labels = append(labels, indexLabel{Name: k, CID: v.String()})
			}
			idx.Labels = labels
		}

		b, err := json.Marshal(idx)
		if err != nil {
			_ = tw.Close()
			return err
		}
		b = append(b, '\n')
		if err := writeEntry(tw, "index.json", b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	return tw.Close()
}

// ImportOptions controls pack import behavior.
type ImportOptions struct {
	// IgnoreUnknown allows unrecognized TAR entries to be skipped.
	// The default is fail-closed: unknown entries abort the import.
	IgnoreUnknown bool
}

// Import reads an evidence pack from r and stores all blocks into cas.
func Import(r io.Reader, cas storage.CAS) error {
	return ImportWithOptions(r, cas, ImportOptions{})
}

// ImportWithOptions reads an evidence pack from r and stores all blocks into
// cas. Each block must match both the CID in its entry path and the CID
// derived from its bytes; index.json and manifests are skipped as
// non-authoritative metadata.
func ImportWithOptions(r io.Reader, cas storage.CAS, opts ImportOptions) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil store")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}

	for {
		h, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == "index.json" || strings.HasPrefix(name, "manifests/") {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}

		if !strings.HasPrefix(name, "blocks/") {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return fmt.Errorf("bundle: unknown entry: %s", name)
		}

		cidStr := strings.TrimPrefix(name, "blocks/")
		id, derr := cid.Decode(cidStr)
		if derr != nil || !id.Defined() {
			return storage.ErrInvalidCID
		}

		payload, rerr := io.ReadAll(tr)
		if rerr != nil {
			return rerr
		}
		got, herr := cidutil.ArtifactCID(payload)
		if herr != nil {
			return herr
		}
		if got != id {
			return storage.ErrCIDMismatch
		}

		if _, ok := seen[id.String()]; ok {
			return fmt.Errorf("bundle: duplicate block entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		putID, perr := cas.Put(payload)
		if perr != nil {
			return perr
		}
		if putID != id {
			return storage.ErrCIDMismatch
		}
	}
}

type indexJSON struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	Blocks    []indexBlock `json:"blocks"`
	Manifests []string     `json:"manifests,omitempty"`
	Labels    []indexLabel `json:"labels,omitempty"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
		out = append(out, part)
	}
	return strings.Join(out, "/")
}
