package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/triplecrown/internal/domain/model"
	"github.com/okian/triplecrown/internal/domain/racetime"
	"github.com/smartystreets/goconvey/convey"
)

func TestNormalizedRowValue(t *testing.T) {
	convey.Convey("Given a normalized row", t, func() {
		age := 46
		chip := 50*time.Minute + 1500*time.Millisecond
		row := model.NormalizedRow{
			Source:   "lc",
			NameFull: "Samuel Wang",
			Age:      &age,
			Gender:   "M",
			TimeGun:  50*time.Minute + 2*time.Second,
			TimeChip: &chip,
			Position: 7,
		}

		convey.Convey("Then set fields render", func() {
			v, ok := row.Value(model.FieldAge)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "46")

			v, _ = row.Value(model.FieldTimeGun)
			convey.So(v, convey.ShouldEqual, "00:50:02.00")

			v, _ = row.Value(model.FieldTimeChip)
			convey.So(v, convey.ShouldEqual, "00:50:01.50")

			v, _ = row.Value(model.FieldPosition)
			convey.So(v, convey.ShouldEqual, "7")
		})

		convey.Convey("Then absent fields report false", func() {
			for _, f := range []string{model.FieldCity, model.FieldPositionGun, model.FieldTimeHandicap, model.FieldDivision, "nope"} {
				v, ok := row.Value(f)
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(v, convey.ShouldEqual, "")
			}
		})

		convey.Convey("Then every canonical field is known", func() {
			convey.So(model.KnownField(model.FieldDivisionPlace), convey.ShouldBeTrue)
			convey.So(model.KnownField("shoe_size"), convey.ShouldBeFalse)
		})
	})
}

func TestBlockingKey(t *testing.T) {
	convey.Convey("Given two equal keys", t, func() {
		a := model.BlockingKey{Name: model.NameBlock{First: "S", Last: "WAN"}, AgeGroup: "45-49", Gender: "M"}
		b := a

		convey.Convey("Then they compare equal and index one map slot", func() {
			convey.So(a == b, convey.ShouldBeTrue)
			m := map[model.BlockingKey]int{a: 1}
			m[b]++
			convey.So(m, convey.ShouldHaveLength, 1)
			convey.So(a.String(), convey.ShouldEqual, "S/WAN|45-49|M")
		})
	})
}

func TestMergedRecordComplete(t *testing.T) {
	convey.Convey("Given merged records", t, func() {
		r := &model.NormalizedRow{}

		convey.So(model.MergedRecord{Parts: []*model.NormalizedRow{r, r}}.Complete(), convey.ShouldBeTrue)
		convey.So(model.MergedRecord{Parts: []*model.NormalizedRow{r, nil}}.Complete(), convey.ShouldBeFalse)
	})
}

func TestRowError(t *testing.T) {
	convey.Convey("Given a malformed time", t, func() {
		_, cause := racetime.Parse("fast")
		err := model.Malformed("ttt", 3, model.FieldTimeGun, "fast", cause)

		convey.Convey("Then both kinds are matchable", func() {
			convey.So(errors.Is(err, model.ErrMalformedRow), convey.ShouldBeTrue)
			convey.So(errors.Is(err, racetime.ErrInvalidTime), convey.ShouldBeTrue)
			convey.So(errors.Is(err, model.ErrUnblockableRow), convey.ShouldBeFalse)
			convey.So(err.Error(), convey.ShouldContainSubstring, "ttt row 3")
		})

		convey.Convey("Then the row error is extractable", func() {
			var rowErr *model.RowError
			convey.So(errors.As(error(err), &rowErr), convey.ShouldBeTrue)
			convey.So(rowErr.Field, convey.ShouldEqual, model.FieldTimeGun)
		})
	})

	convey.Convey("Given an unblockable row without cause", t, func() {
		err := model.Unblockable("wm", 1, model.FieldAge, "-3", nil)

		convey.So(errors.Is(err, model.ErrUnblockableRow), convey.ShouldBeTrue)
	})
}
