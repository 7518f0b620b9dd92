package pool

// fixed is a capacity-bounded Pool backed by buffered channels instead of
// sync.Pool, so that values are never collected between Put and Get under
// GC pressure — useful when a loop's MaxTableSize caps concurrent tasks and
// the caller wants arena buffers to persist for the loop's whole lifetime.
type fixed struct {
	available chan interface{}
	all       chan interface{}
	buf       chan interface{}
	newFn     func() interface{}
}

// NewFixed returns a Pool that never holds more than capacity values alive
// at once, creating new ones via newFn on demand up to that bound and
// blocking Get beyond it until a value is Put back.
func NewFixed(capacity uint, newFn func() interface{}) Pool {
	return &fixed{
		available: make(chan interface{}, capacity),
		all:       make(chan interface{}, capacity),
		buf:       make(chan interface{}, 1024),
		newFn:     newFn,
	}
}

func (p *fixed) Get() interface{} {
	select {
	case el := <-p.available:
		return el

	case el := <-p.buf:
		return el

	default:
		var el interface{}

		if len(p.all) < cap(p.all) {
			el = p.newFn()
		} else {
			el = <-p.all
		}

		select {
		case p.all <- el:
		case p.buf <- el:
		default:
		}
		return el
	}
}

func (p *fixed) Put(el interface{}) {
	select {
	case p.available <- el:
	case p.all <- el:
	case p.buf <- el:
	default:
	}
}
