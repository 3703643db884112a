package contracts

import "github.com/julienschmidt/httprouter"

// APIPrefix is the versioned root of every authenticated resource route.
const APIPrefix = "/api/v1"

// Handler mounts one resource (slots, interviews) on the shared router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// ResourcePath joins APIPrefix with a resource name and optional segments,
// e.g. ResourcePath("interviews", ":id", "cancel").
func ResourcePath(resource string, segments ...string) string {
	path := APIPrefix + "/" + resource
	for _, s := range segments {
		path += "/" + s
	}
	return path
}
