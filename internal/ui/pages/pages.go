// Пакет pages — HTML-страницы консоли ассоциации.
// Шаблоны встраиваются в бинарник и рендерятся через html/template.
// Каждая страница собирается из базового макета layout.html и своего
// файла; partials рендерятся отдельно для частичных обновлений списка.
package pages

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gregory-nguekam/solidarite-serenite/internal/ui/i18n"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

// pageFiles — страницы, каждая парсится вместе с макетом и partials.
var pageFiles = []string{
	"home.html",
	"home_login.html",
	"login.html",
	"forgot_password.html",
	"register.html",
	"register_association.html",
	"unauthorized.html",
	"associations.html",
	"association_detail.html",
	"admin_users.html",
	"settings.html",
	"error.html",
}

// partialFiles — фрагменты, рендерящиеся без макета (ответы HTMX).
var partialFiles = []string{
	"user_rows.html",
	"user_drawer.html",
	"alert.html",
}

// Renderer — реестр разобранных шаблонов страниц.
type Renderer struct {
	pages    map[string]*template.Template
	partials map[string]*template.Template
	logger   *slog.Logger
}

// NewRenderer разбирает все встроенные шаблоны.
// Ошибка парсинга любой страницы фатальна: приложение не стартует.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:    make(map[string]*template.Template),
		partials: make(map[string]*template.Template),
		logger:   logger.With(slog.String("component", "pages")),
	}

	for _, name := range pageFiles {
		t, err := template.New("layout.html").Funcs(stubFuncs()).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name,
			"templates/partials/*.html",
		)
		if err != nil {
			return nil, fmt.Errorf("парсинг страницы %s: %w", name, err)
		}
		r.pages[name] = t
	}

	for _, name := range partialFiles {
		t, err := template.New(name).Funcs(stubFuncs()).ParseFS(templateFS,
			"templates/partials/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("парсинг фрагмента %s: %w", name, err)
		}
		r.partials[name] = t
	}

	return r, nil
}

// Render отрисовывает страницу целиком (макет + содержимое).
// Язык переводов берётся из контекста запроса.
func (r *Renderer) Render(ctx context.Context, w http.ResponseWriter, page string, data any) {
	t, ok := r.pages[page]
	if !ok {
		r.logger.Error("Неизвестная страница", slog.String("page", page))
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}
	r.execute(ctx, w, t, "layout.html", page, data)
}

// RenderPartial отрисовывает фрагмент без макета.
func (r *Renderer) RenderPartial(ctx context.Context, w http.ResponseWriter, partial string, data any) {
	t, ok := r.partials[partial]
	if !ok {
		r.logger.Error("Неизвестный фрагмент", slog.String("partial", partial))
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}
	r.execute(ctx, w, t, partial, partial, data)
}

// execute клонирует шаблон, подставляет функции перевода для языка
// текущего запроса и пишет результат. Рендер идёт в буфер: при ошибке
// клиент получает целый ответ 500, а не обрывок страницы.
func (r *Renderer) execute(ctx context.Context, w http.ResponseWriter, t *template.Template, root, name string, data any) {
	clone, err := t.Clone()
	if err != nil {
		r.logger.Error("Ошибка клонирования шаблона",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}
	clone = clone.Funcs(requestFuncs(ctx))

	var buf bytes.Buffer
	if err := clone.ExecuteTemplate(&buf, root, data); err != nil {
		r.logger.Error("Ошибка рендеринга",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Ошибка рендеринга страницы", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// stubFuncs — заглушки функций перевода на момент парсинга.
// Настоящие функции с языком запроса подставляются при рендере.
func stubFuncs() template.FuncMap {
	return template.FuncMap{
		"t":  func(key string) string { return key },
		"tf": func(key string, args ...any) string { return key },
	}
}

// requestFuncs — функции перевода, привязанные к языку запроса.
func requestFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"t":  func(key string) string { return i18n.T(ctx, key) },
		"tf": func(key string, args ...any) string { return i18n.Tf(ctx, key, args...) },
	}
}
