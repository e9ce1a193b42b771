package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

type WashStats struct {
	Entries int
	Removed int
	Size    int64
}

type washEntry struct {
	meta string
	data []string
	used time.Time
	size int64
}

// Wash removes the entries older than the TTL, then the least recently used
// ones until the cache holds less than its maximum size. Data files without
// meta file are removed too.
func (c *Cache) Wash(ctx context.Context) (WashStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats WashStats
	entries, orphans, err := c.scan()
	if err != nil {
		return stats, err
	}
	for _, file := range orphans {
		if os.Remove(file) == nil {
			stats.Removed++
		}
	}
	slices.SortFunc(entries, func(a, b *washEntry) int {
		return a.used.Compare(b.used)
	})
	for _, e := range entries {
		stats.Size += e.size
	}
	now := c.now()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		tooBig := c.maxSize > 0 && stats.Size >= c.maxSize
		tooOld := c.ttl > 0 && now.Sub(e.used) >= c.ttl
		if !tooBig && !tooOld {
			stats.Entries++
			continue
		}
		for _, file := range append([]string{e.meta}, e.data...) {
			if os.Remove(file) == nil {
				stats.Removed++
			}
		}
		stats.Size -= e.size
	}
	c.logger.Info().
		Int("entries", stats.Entries).
		Int("removed", stats.Removed).
		Int64("size", stats.Size).
		Msg("cache washed")
	return stats, nil
}

func (c *Cache) scan() ([]*washEntry, []string, error) {
	var (
		entries = make(map[string]*washEntry)
		data    = make(map[string][]string)
	)
	err := filepath.WalkDir(c.dir, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if file != c.dir && !c.tree {
				return filepath.SkipDir
			}
			return nil
		}
		i, err := d.Info()
		if err != nil {
			return nil
		}
		switch base := d.Name(); {
		case strings.HasSuffix(base, metaSuffix):
			key := strings.TrimSuffix(file, metaSuffix)
			e := entry(entries, key)
			e.meta = file
			e.used = i.ModTime()
			e.size += i.Size()
		case strings.HasSuffix(base, dataSuffix), strings.HasSuffix(base, dataSuffix+gzipSuffix):
			key := strings.TrimSuffix(strings.TrimSuffix(file, gzipSuffix), dataSuffix)
			data[key] = append(data[key], file)
			entry(entries, key).size += i.Size()
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	var (
		list    []*washEntry
		orphans []string
	)
	for key, e := range entries {
		if e.meta == "" {
			orphans = append(orphans, data[key]...)
			continue
		}
		e.data = data[key]
		list = append(list, e)
	}
	return list, orphans, nil
}

func entry(entries map[string]*washEntry, key string) *washEntry {
	e, ok := entries[key]
	if !ok {
		e = &washEntry{}
		entries[key] = e
	}
	return e
}
