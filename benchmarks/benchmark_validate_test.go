package benchmarks_test

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/reoring/govalid"
	c "github.com/reoring/govalid/constraints"
	"github.com/reoring/govalid/document"
)

// ---- Helpers ----

type address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

type user struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Age     int        `json:"age"`
	Home    *address   `json:"home"`
	Friends []*user    `json:"friends"`
	Past    []*address `json:"past"`
}

func userValidator(tb testing.TB) *govalid.Validator {
	tb.Helper()
	store := govalid.NewMetadataStore()
	err := store.Register(
		govalid.MetadataOf[user]().
			AddPropertyConstraint("id", c.MustNotBlank(nil), c.MustLength(govalid.Options{"max": 32})).
			AddPropertyConstraint("name", c.MustNotBlank(nil)).
			AddPropertyConstraint("age", c.MustRange(govalid.Options{"min": 0, "max": 150})).
			AddPropertyConstraint("home", c.MustValid(nil)).
			AddPropertyConstraint("friends", c.MustValid(nil)).
			AddPropertyConstraint("past", c.MustValid(nil)),
		govalid.MetadataOf[address]().
			AddPropertyConstraint("street", c.MustNotBlank(nil)).
			AddPropertyConstraint("city", c.MustNotBlank(nil)),
	)
	if err != nil {
		tb.Fatalf("metadata registration failed: %v", err)
	}
	return c.NewValidator(govalid.WithMetadata(store))
}

func smallUser() *user {
	return &user{ID: "u_1", Name: "alice", Age: 30, Home: &address{Street: "Main", City: "Tokyo"}}
}

// userGraph builds n users that all know each other, which exercises the
// per-object group cache.
func userGraph(n int) *user {
	users := make([]*user, n)
	for i := range users {
		users[i] = &user{ID: "u_" + strconv.Itoa(i), Name: "n" + strconv.Itoa(i), Age: i % 100,
			Past: []*address{{Street: "s", City: "c"}, {}}}
	}
	for _, u := range users {
		u.Friends = users
	}
	return users[0]
}

// generateHugeJSONArray returns a JSON array of objects of the form:
// [{"id":"obj_0","name":"n0","age":0},...]
func generateHugeJSONArray(numObjects int) []byte {
	var buf bytes.Buffer
	buf.Grow(numObjects * 48)
	buf.WriteByte('[')
	for i := 0; i < numObjects; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"id":"obj_%d","name":"n%d","age":%d}`, i, i, i%200)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// outOfRange counts the objects of generateHugeJSONArray(n) whose age is
// above 150.
func outOfRange(n int) int {
	out := 0
	for i := 0; i < n; i++ {
		if i%200 > 150 {
			out++
		}
	}
	return out
}

func documentConstraint() govalid.Constraint {
	return c.MustAll(c.MustCollection(c.Fields{
		"id":   c.MustNotBlank(nil),
		"name": c.MustLength(govalid.Options{"min": 1, "max": 64}),
		"age":  c.MustRange(govalid.Options{"min": 0, "max": 150}),
	}))
}

// ---- Benchmarks ----

func BenchmarkValidate_SmallStruct(b *testing.B) {
	v := userValidator(b)
	u := smallUser()
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vl, err := v.Validate(ctx, u)
		if err != nil || len(vl) != 0 {
			b.Fatalf("unexpected result: %v %v", vl, err)
		}
	}
}

func BenchmarkValidate_Graph(b *testing.B) {
	for _, n := range []int{10, 100} {
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			v := userValidator(b)
			root := userGraph(n)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				vl, err := v.Validate(ctx, root)
				if err != nil {
					b.Fatal(err)
				}
				if len(vl) != 2*n {
					b.Fatalf("got %d violations, want %d", len(vl), 2*n)
				}
			}
		})
	}
}

func BenchmarkValidate_GroupSequence(b *testing.B) {
	v := c.NewValidator()
	seq := govalid.SequenceOf("Basic", "Strict")
	cs := []govalid.Constraint{
		c.MustNotBlank(govalid.Options{"groups": "Basic"}),
		c.MustLength(govalid.Options{"min": 8, "groups": "Strict"}),
		c.MustRegex(govalid.Options{"pattern": `[0-9]`, "groups": "Strict"}),
	}
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Validate(ctx, "", govalid.Constraints(cs...), govalid.Sequence(seq)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidate_DecodedDocument(b *testing.B) {
	for _, n := range []int{100, 1000} {
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			raw := generateHugeJSONArray(n)
			v := c.NewValidator()
			constraint := documentConstraint()
			ctx := context.Background()
			b.SetBytes(int64(len(raw)))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				doc, err := document.DecodeJSONBytes(raw)
				if err != nil {
					b.Fatal(err)
				}
				vl, err := v.Validate(ctx, doc, govalid.Constraints(constraint))
				if err != nil {
					b.Fatal(err)
				}
				if want := outOfRange(n); len(vl) != want {
					b.Fatalf("got %d violations, want %d", len(vl), want)
				}
			}
		})
	}
}
