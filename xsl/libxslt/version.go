//go:build cgo

package libxslt

/*
#include "glue.h"
*/
import "C"

func Versions() Version {
	return Version{
		Engine:  C.GoString(C.gorg_engine_version()),
		Libxslt: int(C.gorg_libxslt_version()),
		Libxml:  int(C.gorg_libxml_version()),
	}
}
