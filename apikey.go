package offline

import "net/http"

// APIKeyHeader carries the client's API key on private routes.
const APIKeyHeader = "x-api-key"

// KeyStore is the set of valid API keys. Membership is exact and
// case-sensitive. The store is read-only after construction, so concurrent
// lookups need no coordination.
type KeyStore struct {
	keys map[string]struct{}
}

func NewKeyStore(keys ...string) *KeyStore {
	store := &KeyStore{keys: make(map[string]struct{}, len(keys))}
	for _, key := range keys {
		store.keys[key] = struct{}{}
	}
	return store
}

func (store *KeyStore) Contains(key string) bool {
	if key == "" {
		return false
	}
	_, ok := store.keys[key]
	return ok
}

// authorize gates a request against the route's API key requirement. A
// missing header and a wrong key are indistinguishable to the caller; both
// end in the same Forbidden response.
func (gw *Gateway) authorize(route *Route, header http.Header) bool {
	if !route.Private {
		return true
	}
	return gw.keys.Contains(header.Get(APIKeyHeader))
}
