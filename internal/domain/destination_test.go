package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDestination(t *testing.T) {
	Convey("Given a Destination", t, func() {
		tempDir, err := os.MkdirTemp("", "destination_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		Convey("NewDestination", func() {
			Convey("When created with defaults", func() {
				d, err := NewDestination(tempDir)

				Convey("It should carry the default policy", func() {
					So(err, ShouldBeNil)
					So(d.Path(), ShouldEqual, tempDir)
					So(d.TimestampFormat(), ShouldEqual, DefaultTimestampFormat)
					So(d.NameSeparator(), ShouldEqual, DefaultNameSeparator)
					So(d.RetentionCount(), ShouldEqual, DefaultRetentionCount)
					So(d.ArchiveFormat(), ShouldEqual, FormatZip)
				})
			})

			Convey("When the path does not exist", func() {
				_, err := NewDestination(filepath.Join(tempDir, "missing"))

				Convey("It should return ErrDestinationNotFound", func() {
					So(errors.Is(err, ErrDestinationNotFound), ShouldBeTrue)
				})
			})

			Convey("When the path is a file", func() {
				file := filepath.Join(tempDir, "file.txt")
				So(os.WriteFile(file, []byte("x"), 0644), ShouldBeNil)
				_, err := NewDestination(file)

				Convey("It should return ErrInvalidDestination", func() {
					So(errors.Is(err, ErrInvalidDestination), ShouldBeTrue)
				})
			})

			Convey("When the retention count is not positive", func() {
				_, err := NewDestination(tempDir, WithRetentionCount(0))

				Convey("It should be rejected", func() {
					So(errors.Is(err, ErrInvalidDestination), ShouldBeTrue)
				})
			})

			Convey("When the archive format is unknown", func() {
				_, err := NewDestination(tempDir, WithArchiveFormat("rar"))

				Convey("It should return ErrUnsupportedFormat", func() {
					So(errors.Is(err, ErrUnsupportedFormat), ShouldBeTrue)
				})
			})

			Convey("When the separator occurs in the rendered timestamp", func() {
				_, err := NewDestination(tempDir, WithNameSeparator("_"))

				Convey("It should return ErrSeparatorConflict", func() {
					So(errors.Is(err, ErrSeparatorConflict), ShouldBeTrue)
				})
			})

			Convey("When the separator is a digit the timestamp may render", func() {
				_, err := NewDestination(tempDir, WithNameSeparator("9"))

				Convey("It should return ErrSeparatorConflict", func() {
					So(errors.Is(err, ErrSeparatorConflict), ShouldBeTrue)
				})
			})

			Convey("When the separator is any digit", func() {
				Convey("It should return ErrSeparatorConflict for each one", func() {
					for _, sep := range []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"} {
						_, err := NewDestination(tempDir, WithNameSeparator(sep))
						So(errors.Is(err, ErrSeparatorConflict), ShouldBeTrue)
					}
				})
			})

			Convey("When the separator is a weekday or month name the layout renders", func() {
				_, errDay := NewDestination(tempDir,
					WithTimestampFormat("2006_01_02_Mon"), WithNameSeparator("Fri"))
				_, errMonth := NewDestination(tempDir,
					WithTimestampFormat("Jan_02_2006"), WithNameSeparator("Jul"))

				Convey("It should return ErrSeparatorConflict", func() {
					So(errors.Is(errDay, ErrSeparatorConflict), ShouldBeTrue)
					So(errors.Is(errMonth, ErrSeparatorConflict), ShouldBeTrue)
				})
			})

			Convey("When the separator is a meridiem the layout renders", func() {
				_, err := NewDestination(tempDir,
					WithTimestampFormat("2006_01_02_03PM"), WithNameSeparator("AM"))

				Convey("It should return ErrSeparatorConflict", func() {
					So(errors.Is(err, ErrSeparatorConflict), ShouldBeTrue)
				})
			})

			Convey("When the separator is empty", func() {
				_, err := NewDestination(tempDir, WithNameSeparator(""))

				Convey("It should be rejected", func() {
					So(errors.Is(err, ErrInvalidDestination), ShouldBeTrue)
				})
			})
		})

		Convey("Equal", func() {
			a, _ := NewDestination(tempDir)
			b, _ := NewDestination(tempDir)
			c, _ := NewDestination(tempDir, WithRetentionCount(5))

			Convey("It should compare every field", func() {
				So(a.Equal(b), ShouldBeTrue)
				So(a.Equal(c), ShouldBeFalse)
			})
		})

		Convey("Archive names", func() {
			d, _ := NewDestination(tempDir, WithNameSeparator("@"))
			at := time.Date(2024, time.March, 5, 7, 8, 9, 0, time.Local)

			base := d.ArchiveBase("notes", at)

			Convey("It should render stem, separator and timestamp", func() {
				So(base, ShouldEqual, "notes@2024_03_05__070809")
			})

			Convey("It should parse back to the same stem and date", func() {
				name, date, err := ParseArchiveName(base, d.NameSeparator(), d.TimestampFormat())
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "notes")
				So(date.Equal(at), ShouldBeTrue)
			})

			Convey("It should fail without the separator", func() {
				_, _, err := ParseArchiveName("notes-2024", "@", d.TimestampFormat())
				So(err, ShouldNotBeNil)
			})

			Convey("It should fail on a malformed timestamp", func() {
				_, _, err := ParseArchiveName("notes@yesterday", "@", d.TimestampFormat())
				So(err, ShouldNotBeNil)
			})
		})

		Convey("Stem", func() {
			So(Stem("/a/b/report.txt"), ShouldEqual, "report")
			So(Stem("/a/b/archive.tar.gz"), ShouldEqual, "archive.tar")
			So(Stem("/a/b/photos"), ShouldEqual, "photos")
			So(Stem("/home/u/.bashrc"), ShouldEqual, ".bashrc")
		})
	})
}
