package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/cutm/results/apps/api/echo"
	"github.com/cutm/results/core"
	"github.com/cutm/results/core/faculty"
	"github.com/cutm/results/core/result"
	emailsvc "github.com/cutm/results/services/email"
	inmemdb "github.com/cutm/results/storage/database/inmem"
	testutil "github.com/cutm/results/tests"
)

type testApp struct {
	server *echoapi.Server
	svc    *result.Service
	mail   *emailsvc.ConsoleServiceMock
	logger *testutil.Logger
	conf   *core.Config
}

func newTestApp(t *testing.T) *testApp {
	conf := testutil.NewConfig()
	conf.Debug = false
	conf.Email.ClearAllRecipients = []string{"dean@cutm.ac.in"}

	db, err := inmemdb.Open()
	require.NoError(t, err)

	logger := testutil.NewLogger()
	mail := emailsvc.NewConsoleServiceMock(conf)
	// messages are translated by the translator the validator was initialized with
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	svc := result.NewService(inmemdb.NewRecordRepository(db), validate, mail, logger, conf)

	server, err := echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		RecordSvc:  svc,
		Validate:   validate,
		Translator: translator,
	})
	require.NoError(t, err)

	return &testApp{server: server, svc: svc, mail: mail, logger: logger, conf: conf}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, email string) string {
	token, _, err := echoapi.NewSessionToken(conf, faculty.Identity{Email: email})
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// browser replays the cookies set by the server, like a real one would.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, handler http.Handler) *browser {
	return &browser{t: t, handler: handler, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(email string) {
	rec := b.post("/login", url.Values{"email": {email}, "password": {"anything"}})
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.t, "/add", rec.Header().Get("Location"))
}

func studentForm(roll, name string, subjects ...result.SubjectScore) url.Values {
	form := url.Values{
		"roll":         {roll},
		"name":         {name},
		"branch":       {"CSE"},
		"section":      {"A"},
		"year":         {"2"},
		"num_subjects": {itoa(len(subjects))},
	}
	for i, sub := range subjects {
		n := itoa(i + 1)
		form.Set("subject_"+n, sub.Name)
		form.Set("marks_"+n, itoa(sub.Obtained))
		form.Set("total_"+n, itoa(sub.Total))
	}
	return form
}

func itoa(i int) string { return strconv.Itoa(i) }
