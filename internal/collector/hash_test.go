package collector

import "testing"

func TestQuerySetHashIgnoresOrderAndFormatting(t *testing.T) {
	base := QuerySetHash([]string{"golang", "rustlang"})

	if got := QuerySetHash([]string{"rustlang", "golang"}); got != base {
		t.Fatal("reordering changed the hash")
	}
	if got := QuerySetHash([]string{"  golang ", "rust\t lang"}); got == base {
		t.Fatal("editing a query kept the hash")
	}
	if got := QuerySetHash([]string{" golang ", "rustlang"}); got != base {
		t.Fatal("whitespace trimming changed the hash")
	}
	if got := QuerySetHash([]string{"go  lang", "rustlang"}); got == QuerySetHash([]string{"golang", "rustlang"}) {
		t.Fatalf("distinct queries collided: %s", got)
	}
	if got := QuerySetHash([]string{"go  lang"}); got != QuerySetHash([]string{"go lang"}) {
		t.Fatal("internal whitespace not collapsed")
	}
}

func TestQuerySetHashChangesWithMembership(t *testing.T) {
	one := QuerySetHash([]string{"golang"})
	two := QuerySetHash([]string{"golang", "rustlang"})
	if one == two {
		t.Fatal("adding a query kept the hash")
	}
}

func TestShortHash(t *testing.T) {
	hash := QuerySetHash([]string{"golang"})
	short := ShortHash(hash)
	if len(short) != 16 || hash[:16] != short {
		t.Fatalf("unexpected short form: %q", short)
	}
	if ShortHash("abc") != "abc" {
		t.Fatal("short input should pass through")
	}
}

func TestCombinedQueryPreservesOrder(t *testing.T) {
	got := CombinedQuery([]string{"zig", "  golang ", "", "rust  lang"})
	want := "zig OR golang OR rust lang"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
