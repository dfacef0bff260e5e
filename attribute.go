package daikin280

// Attribute is a single parameter write against a device parameter tree.
// Value carries the vendor encoding (typically two hex digits), Path the
// intermediate node names below the dgc_status root, and To the endpoint
// the write is addressed at.
type Attribute struct {
	Name  string
	Value string
	Path  []string
	To    string
}

func (a Attribute) leaf() *treeNode {
	return &treeNode{PN: a.Name, PV: a.Value}
}

// treeNode is one pn/pv/pch element of a multireq parameter tree.
type treeNode struct {
	PN  string      `json:"pn"`
	PV  string      `json:"pv,omitempty"`
	PCH []*treeNode `json:"pch,omitempty"`
}

func (n *treeNode) child(pn string) *treeNode {
	for _, c := range n.PCH {
		if c.PN == pn {
			return c
		}
	}
	return nil
}

// RequestEntry is one element of a multireq requests array.
type RequestEntry struct {
	Op int       `json:"op"`
	PC *treeNode `json:"pc,omitempty"`
	To string    `json:"to"`
}

// Payload is the body of a /dsiot/multireq call.
type Payload struct {
	Requests []*RequestEntry `json:"requests"`
}

const (
	opRead  = 2
	opWrite = 3
)

// Request bundles attribute writes into one multireq payload.
type Request struct {
	Attributes []Attribute
}

// Serialize merges the attributes into a write payload. Writes addressed at
// the same endpoint share one request entry rooted at dgc_status, and writes
// with overlapping paths share a branch: a node name appears at most once
// per level, so a second write extends the existing branch instead of
// duplicating it. Leaves sharing a final container end up as siblings.
func (r Request) Serialize() *Payload {
	payload := &Payload{Requests: []*RequestEntry{}}

	entryFor := func(to string) *RequestEntry {
		for _, entry := range payload.Requests {
			if entry.To == to {
				return entry
			}
		}
		entry := &RequestEntry{
			Op: opWrite,
			PC: &treeNode{PN: "dgc_status", PCH: []*treeNode{}},
			To: to,
		}
		payload.Requests = append(payload.Requests, entry)
		return entry
	}

	for _, attribute := range r.Attributes {
		branch := entryFor(attribute.To).PC
		for _, pn := range attribute.Path {
			next := branch.child(pn)
			if next == nil {
				next = &treeNode{PN: pn, PCH: []*treeNode{}}
				branch.PCH = append(branch.PCH, next)
			}
			branch = next
		}
		branch.PCH = append(branch.PCH, attribute.leaf())
	}

	return payload
}
