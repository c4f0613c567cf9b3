// 1 Sep 2022

// Package species sorts sequence records into groups by the organism
// they come from.
//
// The organism annotation looks like "Genus epithet whatever else".
// A record whose epithet is one of the placeholders "sp.", "aff." or
// "cf." has no clear species and goes into the group called "unknown".
// Everything else is grouped under its complete organism string, so
// two strains of one species with different annotations stay apart.
package species

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/andrew-torda/seqcons/pkg/seq"
)

// Unknown is the key for records without a clear species.
const Unknown = "unknown"

// ErrMalformedAnnotation means an organism string did not have at least
// a genus and an epithet.
var ErrMalformedAnnotation = errors.New("malformed organism annotation")

// uncertain epithets. These are matched exactly.
var uncertain = [...]string{"sp.", "aff.", "cf."}

// Groups maps a species key to its records. Keys come back in the
// order they were first seen, with Unknown always first.
type Groups struct {
	keys  []string
	byKey map[string][]*seq.Record
}

func newGroups() *Groups {
	return &Groups{
		keys:  []string{Unknown},
		byKey: map[string][]*seq.Record{Unknown: {}},
	}
}

func (g *Groups) add(key string, r *seq.Record) {
	if _, ok := g.byKey[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.byKey[key] = append(g.byKey[key], r)
}

// Keys returns a copy of the keys in first-seen order.
func (g *Groups) Keys() []string { return append([]string(nil), g.keys...) }

// Get returns the records for a key, or nil if there is no such key.
func (g *Groups) Get(key string) []*seq.Record { return g.byKey[key] }

// Len is the number of keys, including Unknown.
func (g *Groups) Len() int { return len(g.keys) }

// NSpecies is the number of keys, not counting Unknown.
func (g *Groups) NSpecies() int { return len(g.keys) - 1 }

// NUnknown is the number of records without species identity.
func (g *Groups) NUnknown() int { return len(g.byKey[Unknown]) }

// Count is a key and how many records it has.
type Count struct {
	Key string
	N   int
}

// Counts returns the number of records per key, biggest first. Keys with
// the same count stay in first-seen order.
func (g *Groups) Counts() []Count {
	c := make([]Count, len(g.keys))
	for i, k := range g.keys {
		c[i] = Count{Key: k, N: len(g.byKey[k])}
	}
	sort.SliceStable(c, func(i, j int) bool { return c[i].N > c[j].N })
	return c
}

// Epithet returns the second word of an organism string.
func Epithet(organism string) (string, error) {
	f := strings.Fields(organism)
	if len(f) < 2 {
		return "", fmt.Errorf("%w: \"%s\" has no species epithet", ErrMalformedAnnotation, organism)
	}
	return f[1], nil
}

// Key says which group an organism string belongs to.
func Key(organism string) (string, error) {
	epithet, err := Epithet(organism)
	if err != nil {
		return "", err
	}
	for _, u := range uncertain {
		if epithet == u {
			return Unknown, nil
		}
	}
	return organism, nil
}

// Classify puts each record into its species group. Record order within
// a group follows the input. If any record is malformed, there is no
// result at all.
func Classify(recs []*seq.Record) (*Groups, error) {
	g := newGroups()
	for i, r := range recs {
		if r == nil {
			return nil, fmt.Errorf("record %d is nil: %w", i, ErrMalformedAnnotation)
		}
		key, err := Key(r.Organism)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, r.ID, err)
		}
		g.add(key, r)
	}
	return g, nil
}
