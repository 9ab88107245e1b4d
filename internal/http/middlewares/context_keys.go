package middlewares

type ctxKey string

// Keys for values stored on the request's context.Context.
const (
	KeyUserID  ctxKey = "user_id"
	KeyTokenID ctxKey = "token_id"
)

// Keys for values stored on the gin.Context.
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
)
