package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	ledgerapp "gamebot-server/internal/application/ledger"
)

// LedgerServiceName 参照系サービスの完全修飾名
const LedgerServiceName = "gamebot.v1.LedgerService"

// LedgerService 残高の参照
type LedgerService interface {
	GetBalance(ctx context.Context, userID string) (*ledgerapp.GetBalanceResponse, error)
}

// InventoryService 所持品の参照
type InventoryService interface {
	GetAll(ctx context.Context, userID string) (map[string]int64, error)
}

// LedgerServiceServer gamebot.v1.LedgerService のサーバー側インターフェース
type LedgerServiceServer interface {
	GetBalance(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error)
	GetInventory(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

// LedgerHandler gRPC参照系ハンドラー。リクエストはユーザーIDのみ
type LedgerHandler struct {
	ledgerService    LedgerService
	inventoryService InventoryService
}

// NewLedgerHandler 新しいLedgerHandlerを作成
func NewLedgerHandler(ledgerService LedgerService, inventoryService InventoryService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:    ledgerService,
		inventoryService: inventoryService,
	}
}

// GetBalance 残高取得
func (h *LedgerHandler) GetBalance(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.Int64Value, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	resp, err := h.ledgerService.GetBalance(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Int64(resp.Balance), nil
}

// GetInventory 所持品取得。アイテムIDから所持数への対応を返す
func (h *LedgerHandler) GetInventory(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	items, err := h.inventoryService.GetAll(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	fields := make(map[string]*structpb.Value, len(items))
	for itemID, quantity := range items {
		fields[itemID] = structpb.NewNumberValue(float64(quantity))
	}
	return &structpb.Struct{Fields: fields}, nil
}

// RegisterLedgerServiceServer サービスを登録
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerServiceDesc gamebot.v1.LedgerService のサービス定義
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetBalance",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, ic grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(wrapperspb.StringValue)
				if err := dec(in); err != nil {
					return nil, err
				}
				call := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(LedgerServiceServer).GetBalance(ctx, req.(*wrapperspb.StringValue))
				}
				if ic == nil {
					return call(ctx, in)
				}
				return ic(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LedgerServiceName + "/GetBalance"}, call)
			},
		},
		{
			MethodName: "GetInventory",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, ic grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(wrapperspb.StringValue)
				if err := dec(in); err != nil {
					return nil, err
				}
				call := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(LedgerServiceServer).GetInventory(ctx, req.(*wrapperspb.StringValue))
				}
				if ic == nil {
					return call(ctx, in)
				}
				return ic(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LedgerServiceName + "/GetInventory"}, call)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gamebot/v1/ledger.proto",
}
