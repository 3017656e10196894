package wire

import "sync"

// parserPool recycles Parsers across keep-alive requests and across
// connections once a connection closes, adapted from the teacher's
// sync.Pool-based GetRequest/PutRequest idiom in http11/pool.go.
var parserPool = sync.Pool{
	New: func() any { return NewParser() },
}

// AcquireParser returns a pristine Parser from the pool.
func AcquireParser() *Parser {
	return parserPool.Get().(*Parser)
}

// ReleaseParser resets and returns a Parser to the pool. Callers must not
// use p after calling this.
func ReleaseParser(p *Parser) {
	p.Reset()
	parserPool.Put(p)
}
