package blocking_test

import (
	"errors"
	"testing"

	"github.com/okian/triplecrown/internal/domain/blocking"
	"github.com/okian/triplecrown/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int { return &v }

func TestAgeGroup(t *testing.T) {
	convey.Convey("Given band boundaries", t, func() {
		cases := map[int]string{
			0: "1-17", 17: "1-17", 18: "18-29", 29: "18-29", 30: "30-34",
			34: "30-34", 35: "35-39", 44: "40-44", 45: "45-49", 50: "50-54",
			59: "55-59", 60: "60-64", 64: "60-64", 65: "65-69", 69: "65-69",
			70: "70-99", 999: "70-99",
		}

		convey.Convey("Then each age maps to exactly its band", func() {
			for age, want := range cases {
				got, err := blocking.AgeGroup(age)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
		})

		convey.Convey("Then every age from 0 to 120 lands in one known band", func() {
			prev := 0
			for age := 0; age <= 120; age++ {
				got, err := blocking.AgeGroup(age)
				convey.So(err, convey.ShouldBeNil)
				idx := -1
				for i, b := range blocking.Bands {
					if b == got {
						idx = i
					}
				}
				convey.So(idx, convey.ShouldBeGreaterThanOrEqualTo, prev)
				prev = idx
			}
		})

		convey.Convey("Then negative ages are rejected", func() {
			_, err := blocking.AgeGroup(-1)
			convey.So(errors.Is(err, blocking.ErrNegativeAge), convey.ShouldBeTrue)
		})
	})
}

func TestDivisionAgeGroup(t *testing.T) {
	convey.Convey("Given division labels", t, func() {
		convey.Convey("When the label is well formed", func() {
			got, err := blocking.DivisionAgeGroup("M 45-49", false)

			convey.Convey("Then the second token is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, "45-49")
			})
		})

		convey.Convey("When the band is unknown and validation is off", func() {
			got, err := blocking.DivisionAgeGroup("F Masters", false)

			convey.Convey("Then the token passes through verbatim", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, "Masters")
			})
		})

		convey.Convey("When the band is unknown and validation is on", func() {
			_, err := blocking.DivisionAgeGroup("F Masters", true)

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, blocking.ErrDivisionLabel), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the label has one token", func() {
			_, err := blocking.DivisionAgeGroup("Open", false)

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, blocking.ErrDivisionLabel), convey.ShouldBeTrue)
			})
		})
	})
}

func TestNameBlock(t *testing.T) {
	convey.Convey("Given full names", t, func() {
		convey.Convey("When the name has punctuation and a suffix", func() {
			nb, err := blocking.NameBlock("O'Brien-Smith Jr.", 1, 3, false)

			convey.Convey("Then punctuation is stripped before slicing", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(nb.First, convey.ShouldEqual, "O")
				convey.So(nb.Last, convey.ShouldEqual, "JR")
			})
		})

		convey.Convey("When the name has a single token", func() {
			nb, err := blocking.NameBlock("Cher", 1, 3, false)

			convey.Convey("Then it serves as first and last", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(nb, convey.ShouldResemble, model.NameBlock{First: "C", Last: "CHE"})
			})
		})

		convey.Convey("When tokens are shorter than the widths", func() {
			nb, _ := blocking.NameBlock("  al   wu  ", 3, 5, false)

			convey.Convey("Then whole tokens are kept", func() {
				convey.So(nb, convey.ShouldResemble, model.NameBlock{First: "AL", Last: "WU"})
			})
		})

		convey.Convey("When the width is widened", func() {
			a, _ := blocking.NameBlock("Samuel Wang", 1, 2, false)
			b, _ := blocking.NameBlock("Stephen Way", 1, 2, false)
			c, _ := blocking.NameBlock("Samuel Wang", 1, 3, false)
			d, _ := blocking.NameBlock("Stephen Way", 1, 3, false)

			convey.Convey("Then a false collision is separated", func() {
				convey.So(a, convey.ShouldResemble, b)
				convey.So(c, convey.ShouldNotResemble, d)
			})
		})

		convey.Convey("When accents are folded", func() {
			plain, _ := blocking.NameBlock("José Núñez", 1, 3, false)
			folded, _ := blocking.NameBlock("José Núñez", 1, 3, true)

			convey.Convey("Then diacritics only survive without folding", func() {
				convey.So(plain.Last, convey.ShouldEqual, "NÚÑ")
				convey.So(folded.Last, convey.ShouldEqual, "NUN")
			})
		})

		convey.Convey("When nothing is left after stripping", func() {
			_, err := blocking.NameBlock(" .-' ", 1, 3, false)

			convey.Convey("Then ErrEmptyName is returned", func() {
				convey.So(errors.Is(err, blocking.ErrEmptyName), convey.ShouldBeTrue)
			})
		})
	})
}

func TestCompute(t *testing.T) {
	convey.Convey("Given normalized rows", t, func() {
		p := blocking.DefaultParams()

		convey.Convey("When the row has an age", func() {
			row := &model.NormalizedRow{Source: "ttt", Line: 1, NameFull: "Samuel Wang", Age: intp(46), Gender: "M"}
			k1, err := blocking.Compute(row, p)
			k2, _ := blocking.Compute(row, p)

			convey.Convey("Then the key is deterministic", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(k1, convey.ShouldResemble, k2)
				convey.So(k1.String(), convey.ShouldEqual, "S/WAN|45-49|M")
			})
		})

		convey.Convey("When the row only has a division", func() {
			row := &model.NormalizedRow{Source: "lc", Line: 2, NameFull: "Samuel Wang", Division: "M 45-49", Gender: "M"}
			k, err := blocking.Compute(row, p)

			convey.Convey("Then the band comes from the label", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(k.AgeGroup, convey.ShouldEqual, "45-49")
			})
		})

		convey.Convey("When the age is negative", func() {
			row := &model.NormalizedRow{Source: "wm", Line: 4, NameFull: "A B", Age: intp(-2), Gender: "F"}
			_, err := blocking.Compute(row, p)

			convey.Convey("Then the row is unblockable", func() {
				convey.So(errors.Is(err, model.ErrUnblockableRow), convey.ShouldBeTrue)
				var rowErr *model.RowError
				convey.So(errors.As(err, &rowErr), convey.ShouldBeTrue)
				convey.So(rowErr.Line, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When neither age nor division is present", func() {
			_, err := blocking.Compute(&model.NormalizedRow{NameFull: "A B", Gender: "F"}, p)

			convey.Convey("Then the row is unblockable", func() {
				convey.So(errors.Is(err, blocking.ErrNoAge), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the gender is empty", func() {
			_, err := blocking.Compute(&model.NormalizedRow{NameFull: "A B", Age: intp(30)}, p)

			convey.Convey("Then the row is malformed", func() {
				convey.So(errors.Is(err, model.ErrMalformedRow), convey.ShouldBeTrue)
			})
		})
	})
}

func TestBlock(t *testing.T) {
	convey.Convey("Given a dataset", t, func() {
		ds := model.Dataset{Tag: "ttt", Rows: []model.NormalizedRow{
			{NameFull: "Ann Lee", Age: intp(30), Gender: "F"},
			{NameFull: "Bo Chan", Age: intp(71), Gender: "M"},
		}}

		convey.Convey("When blocking it", func() {
			kd, err := blocking.Block(ds, blocking.DefaultParams())

			convey.Convey("Then keys align with rows", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(kd.Keys, convey.ShouldHaveLength, 2)
				convey.So(kd.Keys[1].AgeGroup, convey.ShouldEqual, "70-99")
				convey.So(kd.Tag, convey.ShouldEqual, "ttt")
			})
		})

		convey.Convey("When one row is unblockable", func() {
			ds.Rows[1].Age = intp(-1)
			_, err := blocking.Block(ds, blocking.DefaultParams())

			convey.Convey("Then the whole dataset fails", func() {
				convey.So(errors.Is(err, model.ErrUnblockableRow), convey.ShouldBeTrue)
			})
		})
	})
}
