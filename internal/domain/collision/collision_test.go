package collision_test

import (
	"testing"

	"github.com/okian/triplecrown/internal/domain/collision"
	"github.com/okian/triplecrown/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func key(first, last string) model.BlockingKey {
	return model.BlockingKey{Name: model.NameBlock{First: first, Last: last}, AgeGroup: "45-49", Gender: "M"}
}

func TestTracker(t *testing.T) {
	Convey("Given a new Tracker", t, func() {
		tr := collision.NewTracker(collision.WithSizeHint(4))

		Convey("Then it starts empty", func() {
			So(tr.Size(), ShouldEqual, 0)
			So(tr.Count(key("S", "WAN")), ShouldEqual, 0)
		})

		Convey("When a key is recorded twice", func() {
			first := tr.SeenAndRecord(key("S", "WAN"))
			second := tr.SeenAndRecord(key("S", "WAN"))

			Convey("Then only the second call reports seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(tr.Size(), ShouldEqual, 1)
				So(tr.Count(key("S", "WAN")), ShouldEqual, 2)
			})
		})

		Convey("When keys repeat out of order", func() {
			for _, k := range []model.BlockingKey{key("A", "LEE"), key("S", "WAN"), key("B", "CHA"), key("S", "WAN"), key("A", "LEE")} {
				tr.SeenAndRecord(k)
			}

			Convey("Then Repeated lists them in first-seen order", func() {
				So(tr.Repeated(), ShouldResemble, []model.BlockingKey{key("A", "LEE"), key("S", "WAN")})
			})
		})
	})
}

func TestWithin(t *testing.T) {
	Convey("Given a source where two runners share a key", t, func() {
		ds := model.KeyedDataset{
			Dataset: model.Dataset{Tag: "ttt", Rows: []model.NormalizedRow{{Line: 1}, {Line: 2}, {Line: 3}, {Line: 4}}},
			Keys:    []model.BlockingKey{key("S", "WA"), key("A", "LEE"), key("S", "WA"), key("S", "WA")},
		}

		Convey("When detecting collisions", func() {
			got := collision.Within(ds)

			Convey("Then the key is reported once with every line", func() {
				So(got, ShouldHaveLength, 1)
				So(got[0].Source, ShouldEqual, "ttt")
				So(got[0].Key, ShouldResemble, key("S", "WA"))
				So(got[0].Lines, ShouldResemble, []int{1, 3, 4})
			})
		})
	})

	Convey("Given a source with unique keys", t, func() {
		ds := model.KeyedDataset{
			Dataset: model.Dataset{Rows: []model.NormalizedRow{{Line: 1}, {Line: 2}}},
			Keys:    []model.BlockingKey{key("S", "WAN"), key("S", "WAY")},
		}

		So(collision.Within(ds), ShouldBeEmpty)
	})
}

func TestFanouts(t *testing.T) {
	Convey("Given matched records", t, func() {
		matched := []model.MergedRecord{
			{Key: key("A", "LEE")},
			{Key: key("S", "WA")},
			{Key: key("S", "WA")},
			{Key: key("S", "WA")},
		}

		got := collision.Fanouts(matched)

		Convey("Then repeated keys are counted", func() {
			So(got, ShouldResemble, []collision.Fanout{{Key: key("S", "WA"), Records: 3}})
		})
	})
}
