package medhist

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/text/language"
)

func observeAll(a *Aggregate, vs ...any) {
	for _, v := range vs {
		So(a.Observe(v), ShouldBeNil)
	}
}

func TestAggregate(t *testing.T) {
	Convey("Given a fresh aggregate", t, func() {
		a := NewAggregate()

		Convey("It is uninitialized and finalizes to no value", func() {
			So(a.Active(), ShouldBeFalse)
			So(a.Type(), ShouldBeNil)
			So(a.Histogram(), ShouldBeNil)
			v, ok := a.Finalize()
			So(ok, ShouldBeFalse)
			So(v, ShouldBeNil)
		})
		Convey("The first value binds the type", func() {
			observeAll(a, 3, 1, 2)
			So(a.Active(), ShouldBeTrue)
			So(a.Type(), ShouldEqual, reflect.TypeFor[int]())
			So(a.TotalWeight(), ShouldEqual, 3)
			v, ok := a.Finalize()
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 2)
		})
		Convey("Even counts take the lower middle", func() {
			observeAll(a, 5, 1)
			v, _ := a.Finalize()
			So(v, ShouldEqual, 1)
		})
		Convey("Duplicates count once each", func() {
			observeAll(a, 1, 1, 2, 3)
			v, _ := a.Finalize()
			So(v, ShouldEqual, 1)
		})
		Convey("Forgetting the only value empties it", func() {
			observeAll(a, 4)
			So(a.Forget(4), ShouldBeNil)
			_, ok := a.Finalize()
			So(ok, ShouldBeFalse)
			So(a.Active(), ShouldBeTrue)
		})
		Convey("Forgetting moves the median", func() {
			observeAll(a, 10, 20, 30)
			So(a.Forget(10), ShouldBeNil)
			v, _ := a.Finalize()
			So(v, ShouldEqual, 20)
		})
		Convey("nil values are skipped", func() {
			So(a.Observe(nil), ShouldBeNil)
			So(a.Active(), ShouldBeFalse)
			observeAll(a, 7, nil, 9)
			So(a.Forget(nil), ShouldBeNil)
			So(a.TotalWeight(), ShouldEqual, 2)
		})
		Convey("Forget before observe is a contract violation", func() {
			err := a.Forget(1)
			So(errors.Is(err, ErrContractViolation), ShouldBeTrue)
		})
		Convey("Forget of a value not held is a contract violation", func() {
			observeAll(a, 1)
			err := a.Forget(2)
			So(errors.Is(err, ErrNotPresent), ShouldBeTrue)
			So(errors.Is(err, ErrContractViolation), ShouldBeTrue)
			So(a.TotalWeight(), ShouldEqual, 1)
		})
		Convey("A second type is rejected", func() {
			observeAll(a, 1)
			So(errors.Is(a.Observe("1"), ErrTypeMismatch), ShouldBeTrue)
			So(errors.Is(a.Observe(int64(1)), ErrTypeMismatch), ShouldBeTrue)
			So(errors.Is(a.Forget(1.0), ErrTypeMismatch), ShouldBeTrue)
			So(a.TotalWeight(), ShouldEqual, 1)
		})
		Convey("An unsupported type leaves it uninitialized", func() {
			err := a.Observe(struct{ X int }{1})
			So(errors.Is(err, ErrUnsupportedType), ShouldBeTrue)
			So(a.Active(), ShouldBeFalse)
		})
	})
}

func TestAggregateOwnership(t *testing.T) {
	Convey("Byte slices are copied on observe", t, func() {
		a := NewAggregate()
		buf := []byte("beta")
		observeAll(a, buf)
		copy(buf, "zzzz")
		observeAll(a, []byte("alpha"), []byte("gamma"))

		v, ok := a.Finalize()
		So(ok, ShouldBeTrue)
		So(string(v.([]byte)), ShouldEqual, "beta")

		Convey("and the result does not alias storage", func() {
			v.([]byte)[0] = 'x'
			w, _ := a.Finalize()
			So(string(w.([]byte)), ShouldEqual, "beta")
			So(a.Forget([]byte("beta")), ShouldBeNil)
		})
	})
}

func TestAggregateLocale(t *testing.T) {
	Convey("Given mixed-case strings", t, func() {
		words := []any{"B", "a", "c"}

		Convey("The default order is bytewise", func() {
			a := NewAggregate()
			observeAll(a, words...)
			v, _ := a.Finalize()
			So(v, ShouldEqual, "a")
		})
		Convey("A locale collates them", func() {
			a := NewAggregate(WithLocale(language.English))
			observeAll(a, words...)
			v, _ := a.Finalize()
			So(v, ShouldEqual, "B")
		})
		Convey("Collation-equal strings keep separate entries", func() {
			a := NewAggregate(WithLocale(language.English))
			observeAll(a, "a", "a\u0001", "A")
			So(a.Histogram().Distinct(), ShouldEqual, 3)
			So(a.Histogram().Count("a"), ShouldEqual, 1)
			err := a.Forget("a\u0002")
			So(errors.Is(err, ErrNotPresent), ShouldBeTrue)
			So(a.TotalWeight(), ShouldEqual, 3)
		})
	})
}

func TestAggregateOverflow(t *testing.T) {
	Convey("Observe surfaces overflow", t, func() {
		a := NewAggregate()
		observeAll(a, 1)
		a.hist.tree.nodes[a.hist.tree.get(1)].count = math.MaxUint64
		a.hist.total = math.MaxUint64
		So(errors.Is(a.Observe(1), ErrOverflow), ShouldBeTrue)
	})
}

func TestAdapter(t *testing.T) {
	Convey("Driving the entry points", t, func() {
		var state *Aggregate

		Convey("A missing state finalizes to no value", func() {
			_, ok := Final(state)
			So(ok, ShouldBeFalse)
		})
		Convey("Inverse without state is a contract violation", func() {
			_, err := Inverse(state, 1)
			So(errors.Is(err, ErrContractViolation), ShouldBeTrue)
		})
		Convey("Transition creates the state and Inverse undoes it", func() {
			var err error
			for _, v := range []any{"pear", "apple", "fig"} {
				state, err = Transition(state, v)
				So(err, ShouldBeNil)
			}
			v, ok := Final(state)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "fig")

			state, err = Inverse(state, "apple")
			So(err, ShouldBeNil)
			v, _ = Final(state)
			So(v, ShouldEqual, "fig")
			state, err = Inverse(state, "fig")
			So(err, ShouldBeNil)
			v, _ = Final(state)
			So(v, ShouldEqual, "pear")
		})
		Convey("Options apply to the created state", func() {
			state, err := Transition(nil, "b", WithLocale(language.German))
			So(err, ShouldBeNil)
			So(state.locale == language.German, ShouldBeTrue)
		})
	})
}

type celsius float64
type label string
type blob []byte

func TestResolver(t *testing.T) {
	Convey("Given the default resolver", t, func() {
		r := NewResolver()
		order := func(v any) Comparator[any] {
			c, _, err := r.Resolve(reflect.TypeOf(v), language.Und)
			So(err, ShouldBeNil)
			return c
		}

		Convey("Named numeric and string types order by their kind", func() {
			So(order(celsius(0))(celsius(-3.5), celsius(2)), ShouldBeLessThan, 0)
			So(order(label(""))(label("b"), label("a")), ShouldBeGreaterThan, 0)
		})
		Convey("Named byte slices are cloned with their type", func() {
			_, clone, err := r.Resolve(reflect.TypeFor[blob](), language.Und)
			So(err, ShouldBeNil)
			src := blob("xy")
			dst := clone(src).(blob)
			src[0] = 'q'
			So(string(dst), ShouldEqual, "xy")
		})
		Convey("NaN sorts before every other float and equals itself", func() {
			c := order(0.0)
			So(c(math.NaN(), math.Inf(-1)), ShouldBeLessThan, 0)
			So(c(math.NaN(), math.NaN()), ShouldEqual, 0)
		})
		Convey("false sorts before true", func() {
			c := order(true)
			So(c(false, true), ShouldBeLessThan, 0)
			So(c(true, true), ShouldEqual, 0)
		})
		Convey("Times order chronologically", func() {
			now := time.Now()
			c := order(now)
			So(c(now, now.Add(time.Second)), ShouldBeLessThan, 0)
		})
		Convey("Unsupported types are reported", func() {
			_, _, err := r.Resolve(reflect.TypeFor[[]int](), language.Und)
			So(errors.Is(err, ErrUnsupportedType), ShouldBeTrue)
			_, _, err = r.Resolve(nil, language.Und)
			So(errors.Is(err, ErrUnsupportedType), ShouldBeTrue)
		})
		Convey("Registered types take precedence", func() {
			r.Register(reflect.TypeFor[string](), func(a, b any) int {
				return strings.Compare(strings.ToLower(a.(string)), strings.ToLower(b.(string)))
			}, nil)
			a := NewAggregate(WithResolver(r))
			observeAll(a, "b", "A", "C")
			v, _ := a.Finalize()
			So(v, ShouldEqual, "b")
		})
	})
}
