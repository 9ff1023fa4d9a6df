package medhist

import (
	"math/rand"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func bruteMedian(vs []int) (int, bool) {
	if len(vs) == 0 {
		return 0, false
	}
	s := append([]int(nil), vs...)
	sort.Ints(s)
	return s[MedianRank(uint64(len(s)))-1], true
}

func TestWindow(t *testing.T) {
	Convey("A non-positive size is rejected", t, func() {
		_, err := NewWindow(0)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a window of five", t, func() {
		w, err := NewWindow(5)
		So(err, ShouldBeNil)
		So(w.Size(), ShouldEqual, 5)
		_, ok := w.Median()
		So(ok, ShouldBeFalse)

		Convey("The median tracks the last five values", func() {
			var seen []int
			for i := 0; i < 2000; i++ {
				v := rand.Intn(50)
				So(w.Push(v), ShouldBeNil)
				seen = append(seen, v)
				last := seen[max(0, len(seen)-5):]
				want, _ := bruteMedian(last)
				got, ok := w.Median()
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			}
			So(w.Full(), ShouldBeTrue)
			So(w.Len(), ShouldEqual, 5)
			So(w.Aggregate().TotalWeight(), ShouldEqual, 5)
		})
		Convey("nil values take a slot but not a rank", func() {
			for _, v := range []any{1, nil, 9, nil, 4} {
				So(w.Push(v), ShouldBeNil)
			}
			got, _ := w.Median()
			So(got, ShouldEqual, 4)
			So(w.Aggregate().TotalWeight(), ShouldEqual, 3)

			for range 5 {
				So(w.Push(nil), ShouldBeNil)
			}
			_, ok := w.Median()
			So(ok, ShouldBeFalse)
			So(w.Len(), ShouldEqual, 5)
		})
		Convey("A rejected value leaves the window unchanged", func() {
			So(w.Push(1), ShouldBeNil)
			So(w.Push("x"), ShouldNotBeNil)
			So(w.Len(), ShouldEqual, 1)
			got, _ := w.Median()
			So(got, ShouldEqual, 1)
		})
		Convey("Byte slices are owned by the window", func() {
			buf := []byte("m")
			for range 5 {
				So(w.Push(buf), ShouldBeNil)
				buf[0]++
			}
			So(w.Push([]byte("a")), ShouldBeNil)
			got, _ := w.Median()
			So(string(got.([]byte)), ShouldEqual, "o")
		})
	})
}
