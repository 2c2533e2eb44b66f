package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/yabu/internal/domain"
)

func TestLocalStorage(t *testing.T) {
	Convey("Given a LocalStorage", t, func() {
		ctx := context.Background()
		tempDir, err := os.MkdirTemp("", "local_storage_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		Convey("NewLocal", func() {
			Convey("When creating with valid path", func() {
				storage, err := NewLocal(tempDir)

				Convey("It should create successfully", func() {
					So(err, ShouldBeNil)
					So(storage, ShouldNotBeNil)
					So(storage.basePath, ShouldEqual, tempDir)
				})
			})

			Convey("When creating with non-existent path", func() {
				newPath := filepath.Join(tempDir, "new", "nested", "dir")
				_, err := NewLocal(newPath)

				Convey("It should fail without creating the directory", func() {
					So(errors.Is(err, domain.ErrDestinationNotFound), ShouldBeTrue)
					_, statErr := os.Stat(newPath)
					So(os.IsNotExist(statErr), ShouldBeTrue)
				})
			})

			Convey("When the path is a file", func() {
				file := filepath.Join(tempDir, "file.txt")
				So(os.WriteFile(file, []byte("x"), 0644), ShouldBeNil)
				_, err := Open(file)

				Convey("It should return ErrInvalidDestination", func() {
					So(errors.Is(err, domain.ErrInvalidDestination), ShouldBeTrue)
				})
			})
		})

		Convey("List method", func() {
			storage, err := NewLocal(tempDir)
			So(err, ShouldBeNil)

			for _, name := range []string{"b-2024.zip", "a-2024.ZIP", "notes.txt"} {
				So(os.WriteFile(filepath.Join(tempDir, name), []byte("x"), 0644), ShouldBeNil)
			}
			So(os.Mkdir(filepath.Join(tempDir, "dir.zip"), 0755), ShouldBeNil)

			Convey("When filtering by extension", func() {
				files, err := storage.List(ctx, ".zip")

				Convey("It should return matching files in lexical order", func() {
					So(err, ShouldBeNil)
					So(files, ShouldResemble, []string{"a-2024.ZIP", "b-2024.zip"})
				})
			})

			Convey("When no extension is given", func() {
				files, err := storage.List(ctx, "")

				Convey("It should return every regular file", func() {
					So(err, ShouldBeNil)
					So(files, ShouldResemble, []string{"a-2024.ZIP", "b-2024.zip", "notes.txt"})
				})
			})
		})

		Convey("Delete method", func() {
			storage, err := NewLocal(tempDir)
			So(err, ShouldBeNil)
			So(os.WriteFile(filepath.Join(tempDir, "old.zip"), []byte("x"), 0644), ShouldBeNil)

			Convey("When deleting an existing file", func() {
				err := storage.Delete(ctx, "old.zip")

				Convey("It should remove it", func() {
					So(err, ShouldBeNil)
					_, statErr := os.Stat(filepath.Join(tempDir, "old.zip"))
					So(os.IsNotExist(statErr), ShouldBeTrue)
				})
			})

			Convey("When deleting a missing file", func() {
				err := storage.Delete(ctx, "missing.zip")

				Convey("It should succeed", func() {
					So(err, ShouldBeNil)
				})
			})
		})

		Convey("GetPath method", func() {
			storage, _ := NewLocal(tempDir)
			So(storage.GetPath("x.zip"), ShouldEqual, filepath.Join(tempDir, "x.zip"))
		})
	})
}
