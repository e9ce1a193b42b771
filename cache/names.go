package cache

import (
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/midbel/gorg/xsl"
)

const (
	metaSuffix = ".Meta"
	dataSuffix = ".Data"
	gzipSuffix = ".gz"
)

var unsafeChars = regexp.MustCompile(`[^\w#.+_-]`)

type names struct {
	dir  string
	meta string
	data string
}

// entryNames builds the names of the meta and data files of the entry of
// file requested with params. /proj/en/index.xml?style=printable gives
// .#proj#en#index.xml+style+printable in the cache directory, or
// index.xml+style+printable in the proj/en sub directory when the cache
// mirrors the tree of the site.
func (c *Cache) entryNames(file string, params []xsl.Param) names {
	var dir, base string
	if c.tree {
		dir = filepath.Join(c.dir, filepath.FromSlash(path.Dir(file)))
		base = path.Base(file)
	} else {
		dir = c.dir
		base = "." + strings.ReplaceAll(file, "/", "#")
	}
	if len(params) > 0 {
		list := slices.Clone(params)
		slices.SortFunc(list, func(a, b xsl.Param) int {
			if c := strings.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return strings.Compare(a.Value, b.Value)
		})
		var parts []string
		for _, p := range list {
			if p.Name == "" {
				continue
			}
			parts = append(parts, p.Name, p.Value)
		}
		if len(parts) > 0 {
			base += "+" + strings.Join(parts, "+")
		}
	}
	base = squeeze(unsafeChars.ReplaceAllString(base, "~"), "~.#+")

	n := names{
		dir:  dir,
		meta: filepath.Join(dir, base+metaSuffix),
		data: filepath.Join(dir, base+dataSuffix),
	}
	if c.level > 0 {
		n.data += gzipSuffix
	}
	return n
}

// squeeze replaces the runs of any character of set by a single one.
func squeeze(str, set string) string {
	var (
		buf  strings.Builder
		prev rune = -1
	)
	for _, r := range str {
		if r == prev && strings.ContainsRune(set, r) {
			continue
		}
		buf.WriteRune(r)
		prev = r
	}
	return buf.String()
}
