package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 优惠券模块错误 200xx
	ErrCouponNotFound    = 20001
	ErrCouponInactive    = 20002
	ErrCouponExpired     = 20003
	ErrCouponExhausted   = 20004
	ErrMinPurchaseNotMet = 20005
	ErrUserLimitReached  = 20006
	ErrCouponContention  = 20007

	// 订单模块错误 300xx
	ErrOrderNotFound      = 30001
	ErrInvalidTransition  = 30002
	ErrInvoiceIssued      = 30003
	ErrOrderNumberFailure = 30004
	ErrPaymentChannel     = 30005

	// 课程模块错误 400xx
	ErrCourseNotFound = 40001

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
