package api

import (
	"bitwise74/member-portal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// render wraps c.HTML with the data every view needs: the drained
// flash notices, the current principal and the CSRF form field.
func (a *API) render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	data["flashes"] = a.Sessions.PopFlashes(c)
	data["currentUser"] = session.CurrentUser(c)
	data["csrfField"] = csrf.TemplateField(c.Request)

	c.HTML(code, name, data)
}
