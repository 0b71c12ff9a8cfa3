package sim

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

var (
	idGeneratorMutex        sync.Mutex
	idGeneratorInstantiated bool
	idGenerator             IDGenerator
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

// UseSequentialIDGenerator makes events and processes carry increasing
// decimal IDs, so that two runs of the same test produce the same trace.
func UseSequentialIDGenerator() {
	setIDGenerator(&sequentialIDGenerator{})
}

// UseUniqueIDGenerator makes every ID globally unique. Traces of several runs
// can then share one database without ID clashes.
func UseUniqueIDGenerator() {
	setIDGenerator(uniqueIDGenerator{})
}

func setIDGenerator(g IDGenerator) {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	if idGeneratorInstantiated {
		log.Panic("cannot change id generator type after using it")
	}

	idGenerator = g
	idGeneratorInstantiated = true
}

// GetIDGenerator returns the ID generator used in the current simulation.
// The sequential generator is selected if none was chosen.
func GetIDGenerator() IDGenerator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	if !idGeneratorInstantiated {
		idGenerator = &sequentialIDGenerator{}
		idGeneratorInstantiated = true
	}

	return idGenerator
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&g.nextID, 1), 10)
}

type uniqueIDGenerator struct{}

func (uniqueIDGenerator) Generate() string {
	return xid.New().String()
}
