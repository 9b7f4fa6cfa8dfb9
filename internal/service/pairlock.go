package service

import "sync"

// pairLocker 按无序用户对加进程内互斥锁，锁对象按引用计数回收
type pairLocker struct {
	mu    sync.Mutex
	locks map[string]*pairLock
}

type pairLock struct {
	mu   sync.Mutex
	refs int
}

func newPairLocker() *pairLocker {
	return &pairLocker{locks: make(map[string]*pairLock)}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Lock 返回解锁函数
func (p *pairLocker) Lock(a, b string) func() {
	key := pairKey(a, b)

	p.mu.Lock()
	l := p.locks[key]
	if l == nil {
		l = &pairLock{}
		p.locks[key] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, key)
		}
		p.mu.Unlock()
	}
}

func (p *pairLocker) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
