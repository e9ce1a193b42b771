package libxslt

import (
	"fmt"
	"sync"

	"github.com/midbel/gorg/xsl"
)

var _ xsl.Engine = (*Engine)(nil)

var shared = sync.OnceValue(func() *xsl.Processor {
	return xsl.New(New())
})

// libxml2 and libxslt keep their callbacks and error state globally: runs of
// every Engine go through the same lock.
var native sync.Mutex

func (e *Engine) Lock() {
	native.Lock()
}

func (e *Engine) Unlock() {
	native.Unlock()
}

// Default returns the Processor shared by the whole process. Processors built
// on another Engine value still wait for each other.
func Default() *xsl.Processor {
	return shared()
}

type Version struct {
	Engine  string
	Libxslt int
	Libxml  int
}

func (v Version) String() string {
	return fmt.Sprintf("%s (libxslt %s, libxml2 %s)", v.Engine, formatVersion(v.Libxslt), formatVersion(v.Libxml))
}

func formatVersion(v int) string {
	return fmt.Sprintf("%d.%d.%d", v/10000, (v/100)%100, v%100)
}
