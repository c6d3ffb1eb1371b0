package web

import (
	"bytes"
	"html/template"
	"io/fs"
	"math/rand"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"

	"cosette/src/handler/api"
	"cosette/src/handler/webui"
	"cosette/src/playlist"
	"cosette/src/storage"
	"cosette/src/util"
)

const publicDir = "public"

type webUI struct {
	build, version string
	urlRoot        string
	files          fs.FS
	store          storage.Store
	minify         *minify.M
	pageTemplate   *template.Template
}

// New creates the router serving the page, its assets and the API.
func New(build, version, urlRoot string, store storage.Store, searcher api.Searcher, inspector api.Inspector) chi.Router {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)

	web := webUI{
		build:   build,
		version: version,
		urlRoot: urlRoot,
		files:   webui.Files(build),
		store:   store,
		minify:  m,
	}
	web.pageTemplate = web.mkTemplate()

	service := chi.NewRouter()
	service.Use(util.LogHandler)
	service.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", web.browserPage)

		public, _ := fs.Glob(web.files, publicDir+"/*")
		for _, file := range public {
			urlPath := strings.TrimPrefix(file, publicDir)
			r.Get(urlPath, web.assetServeHandler(file))
		}

		client, err := fs.Sub(web.files, "client")
		if err != nil {
			log.Fatal(err)
		}
		r.Handle("/client/*", http.StripPrefix("/client/", http.FileServer(http.FS(client))))
	})
	api.InitRouter(service, store, searcher, inspector)

	return service
}

func (web *webUI) mkTemplate() *template.Template {
	return template.Must(template.New("page.html").ParseFS(web.files, "view/page.html"))
}

func (web *webUI) getTemplate() *template.Template {
	if web.build == "debug" {
		return web.mkTemplate()
	}
	return web.pageTemplate
}

// ShufflePlaylist shuffles all tracks except for the first, which is the
// most recently added hit.
func ShufflePlaylist(tracks []playlist.Track) {
	if len(tracks) < 3 {
		return
	}
	rest := tracks[1:]
	rand.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})
}

func (web *webUI) browserPage(w http.ResponseWriter, r *http.Request) {
	tracks, err := web.store.Playlist(r.Context(), storage.GlobalPlaylist)
	if err != nil {
		log.Errorf("Could not load global playlist: %v", err)
		tracks = nil
	}
	if tracks == nil {
		tracks = []playlist.Track{}
	}
	ShufflePlaylist(tracks)

	params := map[string]interface{}{
		"urlroot":  web.urlRoot,
		"version":  web.version,
		"time":     time.Now(),
		"playlist": tracks,
	}
	var buf bytes.Buffer
	if err := web.getTemplate().Execute(&buf, params); err != nil {
		api.WriteError(w, r, err)
		return
	}
	out, err := web.minify.Bytes("text/html", buf.Bytes())
	if err != nil {
		log.Warnf("Could not minify page: %v", err)
		out = buf.Bytes()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(out)
}

func (web *webUI) assetServeHandler(name string) http.HandlerFunc {
	contentType := mime.TypeByExtension(path.Ext(name))
	load := func() ([]byte, error) {
		b, err := fs.ReadFile(web.files, name)
		if err != nil {
			return nil, err
		}
		mediaType, _, _ := mime.ParseMediaType(contentType)
		if minified, err := web.minify.Bytes(mediaType, b); err == nil {
			return minified, nil
		}
		return b, nil
	}

	cached, cacheErr := load()
	modTime := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := cached, cacheErr
		if web.build == "debug" {
			b, err = load()
		}
		if err != nil {
			log.Errorf("Could not serve %q: %v", name, err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		http.ServeContent(w, r, name, modTime, bytes.NewReader(b))
	}
}
