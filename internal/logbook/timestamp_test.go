package logbook

import (
	"encoding/json"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTimestamp(t *testing.T) {
	Convey("Given timestamps from different sources", t, func() {
		Convey("Text that parses resolves to an instant", func() {
			for _, s := range []string{"2024-01-05", "2024-01-05 10:00:00", "2024-01-05T10:00:00Z"} {
				v, ok := FromText(s).Time()
				So(ok, ShouldBeTrue)
				So(v.Format("2006-01-02"), ShouldEqual, "2024-01-05")
			}
		})

		Convey("Unparsable text behaves like a missing date but survives encoding", func() {
			ts := FromText("after lunch")
			_, ok := ts.Time()
			So(ok, ShouldBeFalse)
			So(ts.Ptr(), ShouldBeNil)
			So(ts.IsZero(), ShouldBeFalse)

			b, err := json.Marshal(ts)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"after lunch"`)
		})

		Convey("Instants encode as RFC 3339", func() {
			b, err := json.Marshal(At(time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)))
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"2024-01-05T10:00:00Z"`)

			b, _ = json.Marshal(Timestamp{})
			So(string(b), ShouldEqual, "null")
		})

		Convey("JSON numbers are epoch milliseconds", func() {
			var ts Timestamp
			So(json.Unmarshal([]byte(`1700000000000`), &ts), ShouldBeNil)
			v, ok := ts.Time()
			So(ok, ShouldBeTrue)
			So(v.Equal(time.UnixMilli(1700000000000)), ShouldBeTrue)
		})

		Convey("JSON null and blank text are absent", func() {
			var ts Timestamp
			So(json.Unmarshal([]byte(`null`), &ts), ShouldBeNil)
			So(ts.IsZero(), ShouldBeTrue)
			So(json.Unmarshal([]byte(`"  "`), &ts), ShouldBeNil)
			So(ts.IsZero(), ShouldBeTrue)
		})

		Convey("Nullable columns map both ways", func() {
			So(TimestampFromPtr(nil).IsZero(), ShouldBeTrue)
			v := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			So(*TimestampFromPtr(&v).Ptr(), ShouldEqual, v)
		})
	})
}
