package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	ledgerapp "gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/transaction"
)

// AdminServiceName 管理系サービスの完全修飾名
const AdminServiceName = "gamebot.v1.AdminService"

// BalanceAdjuster 管理者による残高増減
type BalanceAdjuster interface {
	AdjustBalance(ctx context.Context, req *ledgerapp.AdjustBalanceRequest) (*ledgerapp.BalanceChange, error)
}

// AdminServiceServer gamebot.v1.AdminService のサーバー側インターフェース
type AdminServiceServer interface {
	AdjustBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// AdminHandler gRPC管理系ハンドラー
type AdminHandler struct {
	ledgerService BalanceAdjuster
}

// NewAdminHandler 新しいAdminHandlerを作成
func NewAdminHandler(ledgerService BalanceAdjuster) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
	}
}

// AdjustBalance 残高増減
// リクエストは {"user_id": string, "delta": number, "type": string(省略可)}
func (h *AdminHandler) AdjustBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	userID := fields["user_id"].GetStringValue()
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	deltaValue, ok := fields["delta"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "delta is required")
	}
	delta := int64(deltaValue.GetNumberValue())
	if float64(delta) != deltaValue.GetNumberValue() {
		return nil, status.Error(codes.InvalidArgument, "delta must be an integer")
	}

	txType := transaction.TransactionTypeGrant
	if delta < 0 {
		txType = transaction.TransactionTypeConsume
	}
	if s := fields["type"].GetStringValue(); s != "" {
		var err error
		if txType, err = transaction.NewTransactionType(s); err != nil {
			return nil, toStatus(err)
		}
	}

	change, err := h.ledgerService.AdjustBalance(ctx, &ledgerapp.AdjustBalanceRequest{
		UserID:   userID,
		Delta:    delta,
		Type:     txType,
		Metadata: map[string]interface{}{"source": "admin_grpc"},
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"transaction_id": change.TransactionID,
		"user_id":        change.UserID,
		"balance_before": change.BalanceBefore,
		"balance_after":  change.BalanceAfter,
	})
}

// RegisterAdminServiceServer サービスを登録
func RegisterAdminServiceServer(s grpc.ServiceRegistrar, srv AdminServiceServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}

// AdminServiceDesc gamebot.v1.AdminService のサービス定義
var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AdjustBalance",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, ic grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(structpb.Struct)
				if err := dec(in); err != nil {
					return nil, err
				}
				call := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(AdminServiceServer).AdjustBalance(ctx, req.(*structpb.Struct))
				}
				if ic == nil {
					return call(ctx, in)
				}
				return ic(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + AdminServiceName + "/AdjustBalance"}, call)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gamebot/v1/admin.proto",
}
