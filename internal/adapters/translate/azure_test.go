package translate_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/quipodium/internal/adapters/translate"
	. "github.com/smartystreets/goconvey/convey"
)

type recorded struct {
	path   string
	query  map[string][]string
	key    string
	region string
	body   []map[string]string
}

func fakeAzure(status int, reply string, rec *recorded) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.key = r.Header.Get("Ocp-Apim-Subscription-Key")
		rec.region = r.Header.Get("Ocp-Apim-Subscription-Region")
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func TestAzure_Detect(t *testing.T) {
	Convey("Given a translator service that detects Spanish", t, func() {
		rec := &recorded{}
		srv := fakeAzure(http.StatusOK, `[{"language":"es","score":0.92,"isTranslationSupported":true}]`, rec)
		Reset(srv.Close)

		tr := translate.NewAzure(srv.URL+"/", "secret", translate.WithRegion("uksouth"))

		Convey("When detecting a text", func() {
			d, err := tr.Detect(context.Background(), "¿Cuál es la mejor película?")

			Convey("Then the language and score are returned", func() {
				So(err, ShouldBeNil)
				So(d.Language, ShouldEqual, "es")
				So(d.Score, ShouldAlmostEqual, 0.92)
			})

			Convey("And the request follows the v3 contract", func() {
				So(rec.path, ShouldEqual, "/detect")
				So(rec.query["api-version"], ShouldResemble, []string{"3.0"})
				So(rec.key, ShouldEqual, "secret")
				So(rec.region, ShouldEqual, "uksouth")
				So(rec.body, ShouldResemble, []map[string]string{{"Text": "¿Cuál es la mejor película?"}})
			})
		})
	})

	Convey("Given a translator service that returns an empty list", t, func() {
		srv := fakeAzure(http.StatusOK, `[]`, &recorded{})
		Reset(srv.Close)

		_, err := translate.NewAzure(srv.URL, "k").Detect(context.Background(), "text")

		Convey("Then the response is rejected", func() {
			So(errors.Is(err, translate.ErrUnexpectedResponse), ShouldBeTrue)
		})
	})

	Convey("Given a translator service that refuses the key", t, func() {
		srv := fakeAzure(http.StatusUnauthorized, `{"error":{"code":401000}}`, &recorded{})
		Reset(srv.Close)

		_, err := translate.NewAzure(srv.URL, "bad").Detect(context.Background(), "text")

		Convey("Then a request error carrying the status is returned", func() {
			So(errors.Is(err, translate.ErrRequest), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "401")
		})
	})
}

func TestAzure_Translate(t *testing.T) {
	Convey("Given a translator service with two targets", t, func() {
		rec := &recorded{}
		srv := fakeAzure(http.StatusOK, `[{"translations":[{"text":"¿Cuál es la mejor comida?","to":"es"},{"text":"Jakie jest najlepsze jedzenie?","to":"pl"}]}]`, rec)
		Reset(srv.Close)

		tr := translate.NewAzure(srv.URL, "secret")

		Convey("When translating", func() {
			out, err := tr.Translate(context.Background(), "What is the best food?", "en", []string{"es", "pl"})

			Convey("Then one text per target comes back", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, map[string]string{
					"es": "¿Cuál es la mejor comida?",
					"pl": "Jakie jest najlepsze jedzenie?",
				})
			})

			Convey("And every target is sent in one request", func() {
				So(rec.path, ShouldEqual, "/translate")
				So(rec.query["from"], ShouldResemble, []string{"en"})
				So(rec.query["to"], ShouldResemble, []string{"es", "pl"})
				So(rec.region, ShouldBeEmpty)
			})
		})

		Convey("When a target is missing from the reply", func() {
			_, err := tr.Translate(context.Background(), "What is the best food?", "en", []string{"es", "pl", "ga"})

			Convey("Then the response is rejected", func() {
				So(errors.Is(err, translate.ErrUnexpectedResponse), ShouldBeTrue)
			})
		})

		Convey("When no targets are requested", func() {
			out, err := tr.Translate(context.Background(), "anything", "en", nil)

			Convey("Then no request is made", func() {
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
				So(rec.path, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service returning invalid JSON", t, func() {
		srv := fakeAzure(http.StatusOK, `not json`, &recorded{})
		Reset(srv.Close)

		_, err := translate.NewAzure(srv.URL, "k").Translate(context.Background(), "t", "en", []string{"es"})

		Convey("Then the decode failure is reported", func() {
			So(errors.Is(err, translate.ErrUnexpectedResponse), ShouldBeTrue)
		})
	})
}

func TestIdentity(t *testing.T) {
	Convey("Given the identity translator", t, func() {
		tr := translate.Identity{Language: "en"}

		Convey("Then every text is detected as its language", func() {
			d, err := tr.Detect(context.Background(), "anything at all")
			So(err, ShouldBeNil)
			So(d, ShouldResemble, translate.Detection{Language: "en", Score: 1})
		})

		Convey("Then translation copies the text to each target", func() {
			out, err := tr.Translate(context.Background(), "hello there", "en", []string{"es", "ga"})
			So(err, ShouldBeNil)
			So(out, ShouldResemble, map[string]string{"es": "hello there", "ga": "hello there"})
		})
	})
}
