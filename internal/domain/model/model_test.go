package model_test

import (
	"testing"

	"github.com/okian/scribe/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFallbackTopic(t *testing.T) {
	Convey("Given a transcript that could not be segmented", t, func() {
		topic := model.FallbackTopic("Alice: ship it\nBob:  agreed ")

		Convey("Then the whole text becomes one keyword-less topic", func() {
			So(topic.Text, ShouldEqual, "Alice: ship it\nBob:  agreed ")
			So(topic.WordCount, ShouldEqual, 5)
			So(topic.Label, ShouldEqual, model.FallbackTopicLabel)
			So(topic.MainConcept, ShouldEqual, model.FallbackMainConcept)
			So(topic.Keywords, ShouldNotBeNil)
			So(topic.Keywords, ShouldBeEmpty)
		})
	})
}

func TestFallbackTopicWordCount(t *testing.T) {
	Convey("Given transcripts with surrounding whitespace", t, func() {
		Convey("Then only words are counted", func() {
			So(model.FallbackTopic("  one two\tthree \n").WordCount, ShouldEqual, 3)
			So(model.FallbackTopic("").WordCount, ShouldEqual, 0)
			So(model.FallbackTopic(" \n ").WordCount, ShouldEqual, 0)
		})
	})
}

func TestSummary(t *testing.T) {
	Convey("Given summarizer results", t, func() {
		Convey("When both fields are present", func() {
			s := model.NewUpdate("Decided to rotate keys.", "Key rotation agreed")

			Convey("Then it is an update", func() {
				So(s.IsUpdate(), ShouldBeTrue)
				So(s.Detail, ShouldEqual, "Decided to rotate keys.")
				So(s.OneLiner, ShouldEqual, "Key rotation agreed")
			})
		})

		Convey("When either field is blank", func() {
			Convey("Then there is nothing to report", func() {
				So(model.NewUpdate("", "x").IsUpdate(), ShouldBeFalse)
				So(model.NewUpdate("x", "").IsUpdate(), ShouldBeFalse)
				So(model.NoUpdateSummary().IsUpdate(), ShouldBeFalse)
			})
		})
	})
}

func TestMatchResult(t *testing.T) {
	Convey("Given match results", t, func() {
		So(model.NoMatch().Found, ShouldBeFalse)

		m := model.Matched(model.ScoredCandidate{ID: "IAM-1", Relevance: 0.7})
		So(m.Found, ShouldBeTrue)
		So(m.Best.ID, ShouldEqual, "IAM-1")
	})
}
