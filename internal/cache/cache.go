// ABOUTME: Decoded-session cache backed by badger
// ABOUTME: Stores msgpack-encoded decode results keyed by input hash and options
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/scummtools/robot-go/pkg/audio"
	"github.com/scummtools/robot-go/pkg/audio/encode"
	"github.com/scummtools/robot-go/pkg/audio/reconstruct"
	"github.com/scummtools/robot-go/pkg/robot"
	"github.com/scummtools/robot-go/pkg/session"
	"github.com/scummtools/robot-go/pkg/sync"
)

// entryVersion is bumped whenever Entry changes shape
const entryVersion = 2

var ErrNotFound = errors.New("cache: entry not found")

// Options configures the cache
type Options struct {
	Dir      string // Required unless InMemory
	InMemory bool
}

// Cache stores decode results
type Cache struct {
	db *badger.DB
}

// TimelinePoint is one timeline row
type TimelinePoint struct {
	Frame   int     `msgpack:"f"`
	Seconds float64 `msgpack:"t"`
}

// Entry is the stored form of a decode result
type Entry struct {
	Version  int                  `msgpack:"v"`
	ID       string               `msgpack:"id"`
	Header   robot.Header         `msgpack:"header"`
	Format   audio.Format         `msgpack:"format"`
	Stride   int                  `msgpack:"stride"`
	PCM      []byte               `msgpack:"pcm"`
	Timeline []TimelinePoint      `msgpack:"timeline"`
	Packets  []session.PacketInfo `msgpack:"packets"`
	Stats    session.Stats        `msgpack:"stats"`
}

// Open opens or creates the cache
func Open(opts Options) (*Cache, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("cache: Options.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives the cache key for data decoded with opts
func Key(data []byte, opts session.Options) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("rbt:%s:%s:p%t:v%t", hex.EncodeToString(sum[:]), opts.Stride,
		opts.IncludePrimer, opts.PadToVideo)
}

// Get returns the cached result for key
func (c *Cache) Get(_ context.Context, key string) (*session.Result, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache read failed: %w", err)
	}

	var e Entry
	if err := msgpack.Unmarshal(val, &e); err != nil {
		return nil, fmt.Errorf("cache entry %s: %w", key, err)
	}
	if e.Version != entryVersion {
		return nil, ErrNotFound
	}
	return e.result()
}

// Put stores res under key
func (c *Cache) Put(_ context.Context, key string, res *session.Result) error {
	data, err := msgpack.Marshal(newEntry(res))
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// Delete removes key; a missing key is not an error
func (c *Cache) Delete(_ context.Context, key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Decode returns the cached result for data, decoding and storing it on
// a miss. A nil cache always decodes.
func Decode(ctx context.Context, c *Cache, data []byte, opts session.Options) (*session.Result, bool, error) {
	if c == nil {
		res, err := session.Decode(ctx, data, opts)
		return res, false, err
	}

	key := Key(data, opts)
	res, err := c.Get(ctx, key)
	if err == nil {
		log.Printf("Cache hit: %s", res.ID)
		return res, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		log.Printf("Cache read failed, decoding: %v", err)
	}

	res, err = session.Decode(ctx, data, opts)
	if err != nil {
		return nil, false, err
	}
	if err := c.Put(ctx, key, res); err != nil {
		log.Printf("Cache write failed: %v", err)
	}
	return res, false, nil
}

func newEntry(res *session.Result) *Entry {
	e := &Entry{
		Version: entryVersion,
		ID:      res.ID,
		Header:  res.Header,
		Format:  res.Format,
		Stride:  int(res.Stride),
		PCM:     encode.PCM16(res.Samples),
		Packets: res.Packets,
		Stats:   res.Stats,
	}
	if res.Timeline != nil {
		for _, f := range res.Timeline.Frames() {
			t, _ := res.Timeline.AudioTime(f)
			e.Timeline = append(e.Timeline, TimelinePoint{Frame: f, Seconds: t})
		}
	}
	return e
}

func (e *Entry) result() (*session.Result, error) {
	stride, err := reconstruct.ParseStride(e.Stride)
	if err != nil {
		return nil, fmt.Errorf("cache entry %s: %w", e.ID, err)
	}
	if len(e.PCM)%2 != 0 {
		return nil, fmt.Errorf("cache entry %s: odd PCM length %d", e.ID, len(e.PCM))
	}

	samples := make([]int16, len(e.PCM)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(e.PCM[2*i:]))
	}

	tl := sync.NewTimeline()
	for _, p := range e.Timeline {
		tl.Set(p.Frame, p.Seconds)
	}

	return &session.Result{
		ID:       e.ID,
		Header:   e.Header,
		Samples:  samples,
		Format:   e.Format,
		Stride:   stride,
		Timeline: tl,
		Packets:  e.Packets,
		Stats:    e.Stats,
	}, nil
}

// badgerLogger routes badger warnings and errors into log
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	log.Printf("[badger] ERROR: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...any) {
	log.Printf("[badger] WARNING: "+format, args...)
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}
