package period_test

import (
	"testing"
	"time"

	"github.com/ladderhq/ladder/internal/domain/period"
	"github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	convey.Convey("Given period identifier strings", t, func() {
		convey.Convey("When parsing a well-formed identifier", func() {
			p, err := period.Parse("2023-07")

			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Year, convey.ShouldEqual, 2023)
			convey.So(p.Month, convey.ShouldEqual, time.July)
			convey.So(p.String(), convey.ShouldEqual, "2023-07")
		})

		convey.Convey("When parsing malformed identifiers", func() {
			for _, s := range []string{"", "2023", "2023-13", "07-2023", "2023-7x", "july"} {
				_, err := period.Parse(s)
				convey.So(err, convey.ShouldWrap, period.ErrBadPeriod)
			}
		})
	})
}

func TestBounds(t *testing.T) {
	convey.Convey("Given a period", t, func() {
		p, err := period.Parse("2024-02")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then its bounds are UTC month boundaries", func() {
			convey.So(p.Start(), convey.ShouldEqual, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
			convey.So(p.End(), convey.ShouldEqual, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		})

		convey.Convey("Then December rolls into the next year", func() {
			dec, _ := period.Parse("2023-12")
			convey.So(dec.End(), convey.ShouldEqual, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			convey.So(dec.Add(1).String(), convey.ShouldEqual, "2024-01")
		})
	})
}

func TestPrevious(t *testing.T) {
	convey.Convey("Given a reference time", t, func() {
		convey.Convey("Then the default period is the previous calendar month", func() {
			now := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
			convey.So(period.Previous(now).String(), convey.ShouldEqual, "2024-02")
		})

		convey.Convey("Then January steps back into December", func() {
			now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
			convey.So(period.Previous(now).String(), convey.ShouldEqual, "2023-12")
		})
	})
}

func TestMonthsBetween(t *testing.T) {
	convey.Convey("Given two instants", t, func() {
		base := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

		convey.Convey("Then whole calendar months are counted", func() {
			convey.So(period.MonthsBetween(base, base.AddDate(0, 1, 0)), convey.ShouldEqual, 1)
			convey.So(period.MonthsBetween(base, base.AddDate(0, 14, 0)), convey.ShouldEqual, 14)
			convey.So(period.MonthsBetween(base, base.AddDate(1, 0, 0)), convey.ShouldEqual, 12)
		})

		convey.Convey("Then a span under one month is zero", func() {
			convey.So(period.MonthsBetween(base, base), convey.ShouldEqual, 0)
		})

		convey.Convey("Then a reversed span never goes negative", func() {
			convey.So(period.MonthsBetween(base, base.AddDate(0, -3, 0)), convey.ShouldEqual, 0)
		})
	})
}

func TestBefore(t *testing.T) {
	convey.Convey("Given two periods", t, func() {
		a, _ := period.Parse("2023-11")
		b, _ := period.Parse("2024-02")

		convey.So(a.Before(b), convey.ShouldBeTrue)
		convey.So(b.Before(a), convey.ShouldBeFalse)
		convey.So(a.Before(a), convey.ShouldBeFalse)
	})
}
