package graphql

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
)

// DocumentCache stores parsed and validated query documents keyed by the
// hash of the raw query text, so repeated queries skip parsing and
// validation entirely.
type DocumentCache interface {
	Get(key string) (*ast.QueryDocument, bool)
	Put(key string, doc *ast.QueryDocument)
}

// DocumentKey returns the cache key for a raw query: the hex-encoded
// sha256 of the text. The same hash is used by the persisted-query
// extension, so APQ clients and the document cache agree on keys.
func DocumentKey(rawQuery string) string {
	sum := sha256.Sum256([]byte(rawQuery))
	return hex.EncodeToString(sum[:])
}

// memoryCache is an in-process DocumentCache.
type memoryCache struct {
	mu   sync.RWMutex
	docs map[string]*ast.QueryDocument
}

// NewDocumentCache creates an in-process document cache.
func NewDocumentCache() DocumentCache {
	return &memoryCache{docs: make(map[string]*ast.QueryDocument)}
}

func (c *memoryCache) Get(key string) (*ast.QueryDocument, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[key]
	return doc, ok
}

func (c *memoryCache) Put(key string, doc *ast.QueryDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.docs[key] = doc
}
