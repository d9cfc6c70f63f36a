package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"leafgame/internal/ledger/model"
)

const Version = 1

const (
	filePrefix = "ledger-"
	fileSuffix = ".snap.zst"
)

// Header is the first line of a snapshot stream, readable without decoding the body.
type Header struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Users   int       `json:"users"`
	Groups  int       `json:"groups"`
}

// Encoded is a marshalled ledger ready to be written off the writer goroutine.
type Encoded struct {
	Header Header
	Body   []byte
}

// Encode marshals l. It must run on the goroutine that owns l.
func Encode(l *model.Ledger, now time.Time) (Encoded, error) {
	body, err := json.Marshal(l)
	if err != nil {
		return Encoded{}, fmt.Errorf("encode ledger: %w", err)
	}
	return Encoded{
		Header: Header{Version: Version, SavedAt: now.UTC(), Users: len(l.Users), Groups: len(l.Groups)},
		Body:   body,
	}, nil
}

// PathFor names the snapshot taken at t inside dir.
func PathFor(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d%s", filePrefix, t.UnixMilli(), fileSuffix))
}

// Write stores e at path through a temp file so readers never see a partial snapshot.
func Write(path string, e Encoded) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := writeStream(f, e); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeStream(f *os.File, e Encoded) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(e.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := bw.Write(e.Body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func open(path string) (*os.File, *zstd.Decoder, *bufio.Reader, Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, h, err
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, nil, h, err
	}
	br := bufio.NewReaderSize(dec, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		dec.Close()
		_ = f.Close()
		return nil, nil, nil, h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		dec.Close()
		_ = f.Close()
		return nil, nil, nil, h, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		dec.Close()
		_ = f.Close()
		return nil, nil, nil, h, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	return f, dec, br, h, nil
}

func ReadHeader(path string) (Header, error) {
	f, dec, _, h, err := open(path)
	if err != nil {
		return h, err
	}
	dec.Close()
	_ = f.Close()
	return h, nil
}

func Read(path string) (Header, *model.Ledger, error) {
	f, dec, br, h, err := open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()
	defer dec.Close()

	l := model.NewLedger()
	if err := json.NewDecoder(br).Decode(l); err != nil {
		return h, nil, fmt.Errorf("decode ledger: %w", err)
	}
	l.Normalize()
	return h, l, nil
}

// List returns the snapshots in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	type snap struct {
		path string
		ms   int64
	}
	var snaps []snap
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		ms, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix), 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap{path: filepath.Join(dir, name), ms: ms})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ms < snaps[j].ms })
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.path
	}
	return out, nil
}

// Latest returns the newest snapshot in dir, or "" when there is none.
func Latest(dir string) (string, error) {
	all, err := List(dir)
	if err != nil || len(all) == 0 {
		return "", err
	}
	return all[len(all)-1], nil
}

// Prune removes all but the newest keep snapshots.
func Prune(dir string, keep int) (int, error) {
	all, err := List(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := 0; i < len(all)-keep; i++ {
		if err := os.Remove(all[i]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
