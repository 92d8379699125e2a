package framegraph

import "fmt"

// AccessKind is the intent of a pass towards a resource.
type AccessKind uint8

const (
	AccessRead AccessKind = iota
	AccessWrite
)

func (a AccessKind) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return fmt.Sprintf("AccessKind(%d)", a)
	}
}

// ResourceAccess is one declared access of a pass.
type ResourceAccess struct {
	Resource uint32
	Kind     AccessKind
}

// ResourceLifetime is the span of passes that touch a resource. A later
// resource whose First is greater than this Last may alias its memory.
type ResourceLifetime struct {
	Name      string
	Kind      ResourceKind
	First     PassID
	Last      PassID
	LastWrite PassID
}

// findAccess returns the index of the access to id in list, or -1.
func findAccess(list []ResourceAccess, id uint32) int {
	for i, a := range list {
		if a.Resource == id {
			return i
		}
	}
	return -1
}

// computeLifetimes walks passes in declaration order and fills in the
// first, last and last-write pass of every resource.
func computeLifetimes(passes []*pass, resources []resource) {
	for i := range resources {
		r := &resources[i]
		r.first, r.last, r.lastWrite = InvalidPassID, InvalidPassID, InvalidPassID
	}
	for _, p := range passes {
		for _, a := range p.accesses {
			r := &resources[a.Resource]
			if r.first == InvalidPassID {
				// Creation records the first write; a read here means the
				// access lists are corrupt.
				if a.Kind != AccessWrite {
					violate("Compile", ErrReadBeforeWrite, "%s %q first accessed by pass %d", r.kind, r.name, p.id)
				}
				r.first = p.id
			}
			r.last = p.id
			if a.Kind == AccessWrite {
				r.lastWrite = p.id
			}
		}
	}
}

func lifetimes(resources []resource) []ResourceLifetime {
	out := make([]ResourceLifetime, len(resources))
	for i := range resources {
		r := &resources[i]
		out[i] = ResourceLifetime{
			Name:      r.name,
			Kind:      r.kind,
			First:     r.first,
			Last:      r.last,
			LastWrite: r.lastWrite,
		}
	}
	return out
}
