package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	echoapi "github.com/padhq/launchpad/apps/api/echo"
	"github.com/padhq/launchpad/core/progress"
	"github.com/padhq/launchpad/core/project"
	"github.com/padhq/launchpad/core/user"
	testutil "github.com/padhq/launchpad/tests"
)

// scoredLabels returns the labels of a section's scored fields, in
// declaration order.
func scoredLabels(defs []project.FieldDef) []string {
	labels := make([]string, 0, len(defs))
	for _, def := range defs {
		if def.Scored {
			labels = append(labels, def.Label)
		}
	}
	return labels
}

func Test_progressApi_retrieve(t *testing.T) {
	app := setup(t)

	owner := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleProjectOwner}, true)
	stranger := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleProjectOwner}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	prj := testutil.CreateProject(t, prjRepo, owner.ID, "Mog", "mog")

	// a brand-new project scores 0% everywhere, with every requirement
	// reported missing
	emptyRes := marchallObj(t, echoapi.ProgressResponse{
		ProjectID: prj.ID,
		Progress:  0,
		Sections: []echoapi.SectionProgress{
			{
				Section:       project.SectionIDOMetrics,
				Weight:        conf.Progress.IDOMetricsWeight,
				Progress:      0,
				MissingFields: scoredLabels(project.IDOMetricFields),
			},
			{
				Section:       project.SectionPlatformContent,
				Weight:        conf.Progress.PlatformContentWeight,
				Progress:      0,
				MissingFields: scoredLabels(project.PlatformContentFields),
			},
			{
				Section:       project.SectionFAQs,
				Weight:        conf.Progress.FAQsWeight,
				Progress:      0,
				MissingFields: []string{"need 5 more FAQs"},
			},
			{
				Section:       project.SectionQuizQuestions,
				Weight:        conf.Progress.QuizQuestionsWeight,
				Progress:      0,
				MissingFields: []string{"need 5 more quiz questions"},
			},
			{
				Section:       project.SectionMarketingAssets,
				Weight:        conf.Progress.MarketingAssetsWeight,
				Progress:      0,
				MissingFields: scoredLabels(project.MarketingAssetFields),
			},
		},
		LastUpdated: prj.UpdatedAt,
	})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Hidden from strangers", token: getToken(t, stranger),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Owner retrieves", token: getToken(t, owner), wantCode: http.StatusOK, wantData: emptyRes},
		{name: "Admin retrieves", token: getToken(t, admin), wantCode: http.StatusOK, wantData: emptyRes},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/progress/" + prj.ID

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Unknown project", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/progress/lol", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)
	})
}

func Test_progressApi_scoring(t *testing.T) {
	app := setup(t)

	owner := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleProjectOwner}, true)
	prj := testutil.CreateProject(t, prjRepo, owner.ID, "Mog", "mog")
	ownerToken := getToken(t, owner)

	doPut := func(t *testing.T, path string, body []byte) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPut, path, ownerToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("PUT %s code = %v; want %v: %s", path, rec.Code, http.StatusOK, rec.Body.String())
		}
	}

	// confirm 11 of the 22 scored metrics
	events, cancel := broker.Subscribe(prj.ID)
	defer cancel()

	fields := make(map[project.FieldName]project.FieldInput, 11)
	for _, def := range project.IDOMetricFields[:11] {
		fields[def.Name] = project.FieldInput{Value: "set", Status: project.StatusConfirmed}
	}
	doPut(t, "/v1/projects/"+prj.ID+"/metrics", marchallObj(t, project.SaveFields{Fields: fields}))

	// one confirmation event per newly-confirmed field, then a save event
	var confirmed, saved int
drain:
	for {
		select {
		case evt := <-events:
			switch evt.Kind {
			case progress.EventFieldConfirmed:
				confirmed++
			case progress.EventSectionSaved:
				saved++
			}
		default:
			break drain
		}
	}
	if confirmed != 11 {
		t.Errorf("field_confirmed events = %d; want 11", confirmed)
	}
	if saved != 1 {
		t.Errorf("section_saved events = %d; want 1", saved)
	}
	cancel()

	// 2 of 5 FAQs
	doPut(t, "/v1/projects/"+prj.ID+"/faqs", marchallObj(t, project.SaveFAQs{FAQs: []project.FAQInput{
		{Question: "What is Mog?", Answer: "A token.", Status: project.StatusConfirmed},
		{Question: "When IDO?", Answer: "Soon.", Status: project.StatusConfirmed},
	}}))

	// all 5 quiz questions
	questions := make([]project.QuizQuestionInput, 0, 5)
	for _, q := range []string{"Network?", "Ticker?", "Total supply?", "Sale price?", "Vesting?"} {
		questions = append(questions, project.QuizQuestionInput{
			Question:      q,
			Options:       []string{"A", "B", "C"},
			CorrectOption: 1,
			Status:        project.StatusConfirmed,
		})
	}
	doPut(t, "/v1/projects/"+prj.ID+"/quiz", marchallObj(t, project.SaveQuizQuestions{Questions: questions}))

	req, rec := newAuthRequest(http.MethodGet, "/v1/progress/"+prj.ID, ownerToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var res echoapi.ProgressResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}

	// 0.35*50 + 0.25*0 + 0.15*40 + 0.10*100 + 0.15*0 = 33.5, rounded half up
	if res.Progress != 34 {
		t.Errorf("Progress = %d; want 34", res.Progress)
	}

	wantSections := map[project.Section]int{
		project.SectionIDOMetrics:      50,
		project.SectionPlatformContent: 0,
		project.SectionFAQs:            40,
		project.SectionQuizQuestions:   100,
		project.SectionMarketingAssets: 0,
	}
	wantMissing := map[project.Section][]string{
		project.SectionIDOMetrics:      scoredLabels(project.IDOMetricFields)[11:],
		project.SectionPlatformContent: scoredLabels(project.PlatformContentFields),
		project.SectionFAQs:            {"need 3 more FAQs"},
		project.SectionQuizQuestions:   {},
		project.SectionMarketingAssets: scoredLabels(project.MarketingAssetFields),
	}
	for _, sec := range res.Sections {
		if sec.Progress != wantSections[sec.Section] {
			t.Errorf("%s Progress = %d; want %d", sec.Section, sec.Progress, wantSections[sec.Section])
		}
		ok, err := jsonBytesEqual(t, marchallObj(t, sec.MissingFields), marchallObj(t, wantMissing[sec.Section]))
		if err != nil || !ok {
			t.Errorf("%s MissingFields = %v; want %v", sec.Section, sec.MissingFields, wantMissing[sec.Section])
		}
	}
}

func Test_progressApi_recalculate(t *testing.T) {
	app := setup(t)

	owner := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleProjectOwner}, true)
	stranger := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleProjectOwner}, true)
	prj := testutil.CreateProject(t, prjRepo, owner.ID, "Mog", "mog")

	t.Run("Hidden from strangers", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/progress/"+prj.ID+"/recalculate", getToken(t, stranger))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		}, rec)
	})

	t.Run("Recalculates and notifies watchers", func(t *testing.T) {
		events, cancel := broker.Subscribe(prj.ID)
		defer cancel()

		req, rec := newAuthRequest(http.MethodPost, "/v1/progress/"+prj.ID+"/recalculate", getToken(t, owner))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var res echoapi.ProgressResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if res.ProjectID != prj.ID {
			t.Errorf("ProjectID = %s; want %s", res.ProjectID, prj.ID)
		}

		select {
		case evt := <-events:
			if evt.Kind != progress.EventManualRefresh {
				t.Errorf("event Kind = %s; want %s", evt.Kind, progress.EventManualRefresh)
			}
			if evt.ProjectID != prj.ID {
				t.Errorf("event ProjectID = %s; want %s", evt.ProjectID, prj.ID)
			}
		case <-time.After(1 * time.Second):
			t.Error("no invalidation event received")
		}
	})
}

func Test_progressApi_watch(t *testing.T) {
	app := setup(t)

	owner := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleProjectOwner}, true)
	prj := testutil.CreateProject(t, prjRepo, owner.ID, "Mog", "mog")

	srv := httptest.NewServer(app)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/progress/" + prj.ID + "/watch"

	t.Run("Auth required", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			_ = conn.Close()
			t.Fatal("expected the handshake to be rejected")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("handshake response = %v; want %v", resp, http.StatusUnauthorized)
		}
	})

	t.Run("Streams on invalidation", func(t *testing.T) {
		header := http.Header{"Authorization": []string{"Bearer " + getToken(t, owner)}}
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
		if err != nil {
			t.Fatalf("Dial() failed: %v", err)
		}
		defer func() { _ = conn.Close() }()

		// initial result is pushed right away
		var res echoapi.ProgressResponse
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&res); err != nil {
			t.Fatalf("ReadJSON() failed: %v", err)
		}
		if res.ProjectID != prj.ID {
			t.Errorf("ProjectID = %s; want %s", res.ProjectID, prj.ID)
		}
		if res.Progress != 0 {
			t.Errorf("Progress = %d; want 0", res.Progress)
		}

		// a write elsewhere pushes a fresh result; the 2s deadline is well
		// under the poll fallback, so this must be the event-driven push
		if _, err := prjSvc.SaveFAQs(prj.ID, project.SaveFAQs{FAQs: []project.FAQInput{
			{Question: "What is Mog?", Answer: "A token.", Status: project.StatusConfirmed},
			{Question: "When IDO?", Answer: "Soon.", Status: project.StatusConfirmed},
		}}); err != nil {
			t.Fatalf("SaveFAQs() failed: %v", err)
		}

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&res); err != nil {
			t.Fatalf("ReadJSON() failed: %v", err)
		}
		for _, sec := range res.Sections {
			if sec.Section == project.SectionFAQs && sec.Progress != 40 {
				t.Errorf("faqs Progress = %d; want 40", sec.Progress)
			}
		}
	})
}
