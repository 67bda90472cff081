package model_test

import (
	"strings"
	"testing"

	"github.com/okian/quipodium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPrompt_TextIn(t *testing.T) {
	Convey("Given a prompt with two variants", t, func() {
		p := model.Prompt{
			ID:       "p1",
			Username: "bryanvullo",
			Texts: []model.Text{
				{Language: model.LangEnglish, Text: "What is the best movie?"},
				{Language: model.LangSpanish, Text: "¿Cuál es la mejor película?"},
			},
		}

		Convey("When asking for a stored language", func() {
			text, ok := p.TextIn(model.LangSpanish)

			Convey("Then the variant is returned", func() {
				So(ok, ShouldBeTrue)
				So(text, ShouldEqual, "¿Cuál es la mejor película?")
			})
		})

		Convey("When asking for a missing language", func() {
			text, ok := p.TextIn(model.LangPolish)

			Convey("Then nothing is returned", func() {
				So(ok, ShouldBeFalse)
				So(text, ShouldBeEmpty)
			})
		})
	})
}

func TestIsSupportedLanguage(t *testing.T) {
	Convey("Given the supported language list", t, func() {
		So(model.SupportedLanguages, ShouldHaveLength, 6)

		Convey("Then listed codes are accepted and others rejected", func() {
			for _, code := range model.SupportedLanguages {
				So(model.IsSupportedLanguage(code), ShouldBeTrue)
			}
			So(model.IsSupportedLanguage("it"), ShouldBeFalse)
			So(model.IsSupportedLanguage("zh"), ShouldBeFalse)
			So(model.IsSupportedLanguage(""), ShouldBeFalse)
		})
	})
}

func TestValidatePromptText(t *testing.T) {
	Convey("Given prompt texts around the length bounds", t, func() {
		Convey("Then 20 and 100 characters are accepted", func() {
			So(model.ValidatePromptText(strings.Repeat("a", 20)), ShouldBeNil)
			So(model.ValidatePromptText(strings.Repeat("a", 100)), ShouldBeNil)
			So(model.ValidatePromptText("What is the best food?"), ShouldBeNil)
		})

		Convey("Then 19 and 101 characters are rejected", func() {
			So(model.ValidatePromptText(strings.Repeat("a", 19)), ShouldEqual, model.ErrPromptLength)
			So(model.ValidatePromptText(strings.Repeat("a", 101)), ShouldEqual, model.ErrPromptLength)
		})

		Convey("Then multibyte text is counted in characters", func() {
			So(model.ValidatePromptText(strings.Repeat("é", 20)), ShouldBeNil)
		})
	})
}
