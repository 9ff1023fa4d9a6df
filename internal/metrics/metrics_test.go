package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Metrics register on their own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)

		m.Observed.Add(3)
		m.Rejected.WithLabelValues("parse").Inc()
		m.Groups.Set(2)

		So(testutil.ToFloat64(m.Observed), ShouldEqual, 3)
		So(testutil.ToFloat64(m.Rejected.WithLabelValues("parse")), ShouldEqual, 1)
		So(testutil.ToFloat64(m.Groups), ShouldEqual, 2)

		families, err := reg.Gather()
		So(err, ShouldBeNil)
		So(len(families), ShouldBeGreaterThan, 0)

		Convey("Registering twice on one registry panics", func() {
			So(func() { NewMetrics(reg) }, ShouldPanic)
		})
	})
}
