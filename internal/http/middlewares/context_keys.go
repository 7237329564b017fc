package middlewares

// Keys used with gin.Context.Set/Get.
const (
	CtxRequestID = "request_id"
	CtxUser      = "auth.user"
	CtxClaims    = "auth.claims"
)
