package interceptor

import (
	"context"
	"strings"

	"google.golang.org/grpc"
)

// ForService 指定サービス配下のメソッドにだけ interceptor を適用する
// service は "gamebot.v1.AdminService" のような完全修飾名
func ForService(service string, ic grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	prefix := "/" + service + "/"
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		return ic(ctx, req, info, handler)
	}
}
