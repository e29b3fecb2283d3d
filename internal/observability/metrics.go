package observability

type Metrics interface {
	ObserveLookup(key, source string, cacheMs, dbMs float64)
	ObserveOrder(dbWriteMs float64, ok bool)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveKafka(processMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, string, float64, float64) {}
func (Noop) ObserveOrder(float64, bool)                     {}
func (Noop) ObserveHTTP(string, string, int, float64)       {}
func (Noop) ObserveKafka(float64, bool)                     {}
func (Noop) IncCacheHit()                                   {}
func (Noop) IncCacheMiss()                                  {}
