package medhist

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func TestComparator(t *testing.T) {
	Convey("Reverse inverts the order", t, func() {
		h := New(NewContext(Reverse(Natural[int]()), language.Und), nil)
		for _, v := range []int{1, 2, 3, 4} {
			h.Insert(v)
		}
		m, _ := h.Median()
		So(m, ShouldEqual, 3)
		q, _ := h.Quantile(0)
		So(q, ShouldEqual, 4)
	})

	Convey("Collated orders by locale rules", t, func() {
		c := Collated(language.English)
		So(c("a", "B"), ShouldBeLessThan, 0)
		So(Natural[string]()("a", "B"), ShouldBeGreaterThan, 0)

		ci := Collated(language.English, collate.IgnoreCase)
		So(ci("abc", "ABC"), ShouldEqual, 0)
	})

	Convey("Deterministic separates strings the collation ignores differences in", t, func() {
		c := Collated(language.English)
		d := Deterministic(c)
		So(c("a", "a\u0001"), ShouldEqual, 0)
		So(d("a", "a\u0001"), ShouldNotEqual, 0)
		So(d("a", "a"), ShouldEqual, 0)
		So(d("a", "B"), ShouldBeLessThan, 0)
	})

	Convey("Context keeps its order and locale", t, func() {
		ctx := NewContext(Collated(language.Swedish), language.Swedish)
		So(ctx.Locale() == language.Swedish, ShouldBeTrue)
		So(ctx.Compare("z", "ö"), ShouldBeLessThan, 0)
		So(func() { NewContext[int](nil, language.Und) }, ShouldPanic)
		So(func() { New(Context[int]{}, nil) }, ShouldPanic)
	})
}
