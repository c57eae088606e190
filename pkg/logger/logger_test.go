package logger_test

import (
	"context"
	"errors"
	"testing"

	logger "github.com/matrank/matrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInitAndGet(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When getting the global instance", func() {
			log := logger.Get()

			Convey("Then it should be usable without panicking", func() {
				So(log, ShouldNotBeNil)
				So(func() {
					log.Info(context.Background(), "hello", logger.String("k", "v"))
					log.Debug(context.Background(), "debug line")
					log.Warn(context.Background(), "warn line", logger.Int("n", 3))
					log.Error(context.Background(), "error line", logger.Error(errors.New("boom")))
				}, ShouldNotPanic)
			})

			Convey("And naming should return a derived logger", func() {
				named := log.Named("sub")
				So(named, ShouldNotBeNil)
				So(func() { named.Info(context.Background(), "from sub") }, ShouldNotPanic)
			})
		})

		Convey("When syncing", func() {
			So(logger.Sync(), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When setting known level names", func() {
			for _, level := range []string{"debug", "info", "warn", "warning", "error", "DEBUG", " info "} {
				So(logger.SetLevelString(level), ShouldBeNil)
			}
		})

		Convey("When setting an empty level", func() {
			Convey("Then it should fall back to info", func() {
				So(logger.SetLevelString(""), ShouldBeNil)
			})
		})

		Convey("When setting an unknown level", func() {
			err := logger.SetLevelString("loud")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		Convey("Then each should carry its key and value", func() {
			So(logger.String("a", "b"), ShouldResemble, logger.Field{Key: "a", Value: "b"})
			So(logger.Int("n", 7), ShouldResemble, logger.Field{Key: "n", Value: 7})
			So(logger.Float64("f", 1.5), ShouldResemble, logger.Field{Key: "f", Value: 1.5})
			So(logger.Any("x", []int{1}), ShouldResemble, logger.Field{Key: "x", Value: []int{1}})

			err := errors.New("boom")
			So(logger.Error(err), ShouldResemble, logger.Field{Key: "error", Value: err})
		})
	})
}
