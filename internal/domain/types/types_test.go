package types_test

import (
	"encoding/json"
	"testing"

	types "github.com/okian/triplecrown/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntryJSON(t *testing.T) {
	Convey("Given an Entry without optional fields", t, func() {
		entry := types.Entry{
			Position:  1,
			Name:      "Ann Lee",
			Gender:    "F",
			Splits:    []types.Split{{Source: "ttt", Position: 3, TimeGun: "00:45:00.00"}},
			TimeTotal: "00:45:00.00",
		}

		Convey("When encoding it", func() {
			b, err := json.Marshal(entry)

			Convey("Then optional fields are omitted", func() {
				So(err, ShouldBeNil)
				s := string(b)
				So(s, ShouldContainSubstring, `"time_total":"00:45:00.00"`)
				So(s, ShouldContainSubstring, `"source":"ttt"`)
				So(s, ShouldNotContainSubstring, `"age"`)
				So(s, ShouldNotContainSubstring, `"city"`)
			})
		})
	})
}
