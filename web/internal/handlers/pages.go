package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/inkwell/internal/blog"
	"github.com/devilmonastery/inkwell/internal/client"
	"github.com/devilmonastery/inkwell/internal/pkg/urlutil"
)

// pageParam reads ?page, defaulting to 1
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// idParam reads the numeric {id} route variable
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// addArticleList loads one page of articles for key and fills the pager
// fields used by the article-list component. pathFor builds the URL of
// another page.
func (h *Handler) addArticleList(r *http.Request, data map[string]interface{}, key string, pathFor func(page int) string) error {
	page := pageParam(r)
	articles, err := h.app.Blog.GetArticleList(r.Context(), blog.ListQuery{
		Key:      key,
		Page:     page,
		PageSize: h.site.PageSize,
	}, client.ShowError(false))
	if err != nil {
		return err
	}

	hasNext := int64(page*h.site.PageSize) < articles.Total
	data["Articles"] = articles
	data["Page"] = page
	data["HasNext"] = hasNext
	data["PrevURL"] = pathFor(page - 1)
	data["NextURL"] = pathFor(page + 1)
	return nil
}

// Home lists the latest articles, or search results when ?key is set
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("key")

	data := h.newTemplateData(w, r)
	data["Keyword"] = keyword
	err := h.addArticleList(r, data, keyword, func(page int) string {
		return urlutil.SearchPath(keyword, page)
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, "home.html", data)
}

// Category lists the articles of one category. Requests without the
// canonical slug are redirected to it.
func (h *Handler) Category(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	tree, err := h.app.Blog.GetAllCategories(r.Context(), client.ShowError(false))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	category := blog.Find(tree, id)
	if category == nil {
		h.notFound(w, r)
		return
	}

	canonical := urlutil.CategoryPath(category.ID, category.Name)
	if r.URL.Path != canonical {
		target := canonical
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	data := h.newTemplateData(w, r)
	data["Category"] = category
	data["Breadcrumb"] = blog.Path(tree, id)
	data["ActiveCategory"] = category.ID
	err = h.addArticleList(r, data, strconv.FormatInt(id, 10), func(page int) string {
		if page > 1 {
			return canonical + "?page=" + strconv.Itoa(page)
		}
		return canonical
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderTemplate(w, "category.html", data)
}

// Article shows one article with its recommended links
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	article, err := h.app.Blog.GetArticleDetail(r.Context(), id, client.ShowError(false))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	canonical := urlutil.ArticlePath(article.ID, article.Title)
	if r.URL.Path != canonical {
		http.Redirect(w, r, canonical, http.StatusMovedPermanently)
		return
	}

	data := h.newTemplateData(w, r)
	data["Article"] = article
	data["ActiveCategory"] = article.CategoryID

	links, err := h.app.Blog.GetArticleRecommendLinks(r.Context(), id, client.ShowError(false))
	if err != nil {
		h.log.Warn("failed to load recommended links",
			slog.Int64("article_id", id),
			slog.String("error", err.Error()))
	}
	data["Links"] = links

	h.renderTemplate(w, "article.html", data)
}
