package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/and161185/content-history/internal/config"
	"github.com/and161185/content-history/internal/convert"
	"github.com/and161185/content-history/internal/model"
	grpcserver "github.com/and161185/content-history/internal/server/grpc"
	"github.com/and161185/content-history/internal/service"
)

// maxBatch mirrors the server default; larger batches are rejected there anyway.
const maxBatch = 1000

type listFlags struct {
	itemID    int64
	typeID    int64
	orderBy   string
	direction string
}

func newListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List versions of one item",
		Long:  "Lists every stored version of an item, newest first by default. The version matching the live item is marked current.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := model.ListQuery{ItemID: flags.itemID, TypeID: flags.typeID, OrderBy: flags.orderBy, Direction: flags.direction}
			return withClient(cmd.Context(), func(ctx context.Context, cl *grpcserver.HistoryClient) error {
				req, err := convert.ToListRequest(global.typeAlias, q)
				if err != nil {
					return err
				}
				resp, err := cl.ListVersions(ctx, req)
				if err != nil {
					return err
				}
				h, err := convert.FromHistoryResponse(resp)
				if err != nil {
					return err
				}
				printJSON(historyView(h))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&flags.itemID, "item", 0, "content item id (required)")
	cmd.Flags().Int64Var(&flags.typeID, "type-id", 0, "content type id (required)")
	cmd.Flags().StringVar(&flags.orderBy, "order", "", "order column: version_id, version_note, save_date, editor_user_id")
	cmd.Flags().StringVar(&flags.direction, "dir", "", "ASC or DESC")
	_ = cmd.MarkFlagRequired("item")
	_ = cmd.MarkFlagRequired("type-id")

	return cmd
}

type versionRow struct {
	ID          int64  `json:"id"`
	SaveDate    string `json:"save_date"`
	Editor      string `json:"editor"`
	Note        string `json:"note,omitempty"`
	Chars       int64  `json:"character_count"`
	Hash        string `json:"sha1_hash"`
	KeepForever bool   `json:"keep_forever"`
	Current     bool   `json:"current"`
}

func rowOf(v model.Version) versionRow {
	r := versionRow{
		ID:          v.ID,
		Editor:      v.Editor,
		Note:        v.Note,
		Chars:       v.CharacterCount,
		Hash:        v.SHA1Hash,
		KeepForever: v.KeepForever,
		Current:     v.Current,
	}
	if !v.SaveDate.IsZero() {
		r.SaveDate = v.SaveDate.Local().Format(time.DateTime)
	}
	return r
}

func historyView(h model.History) map[string]any {
	rows := make([]versionRow, 0, len(h.Versions))
	for _, v := range h.Versions {
		rows = append(rows, rowOf(v))
	}
	return map[string]any{"current_hash": h.CurrentHash, "versions": rows}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <version-id>",
		Short: "Show one version including its stored data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(ctx context.Context, cl *grpcserver.HistoryClient) error {
				req, err := structpb.NewStruct(map[string]any{
					convert.FieldTypeAlias: global.typeAlias,
					convert.FieldVersionID: float64(ids[0]),
				})
				if err != nil {
					return err
				}
				resp, err := cl.GetVersion(ctx, req)
				if err != nil {
					return err
				}
				v, err := convert.FromVersionResponse(resp)
				if err != nil {
					return err
				}
				printJSON(map[string]any{"version": rowOf(v), "data": string(v.Data)})
				return nil
			})
		},
	}
}

type batchCall func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func runBatch(cmd *cobra.Command, args []string, pick func(*grpcserver.HistoryClient) batchCall) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withClient(cmd.Context(), func(ctx context.Context, cl *grpcserver.HistoryClient) error {
		req, err := convert.ToBatchRequest(global.typeAlias, ids)
		if err != nil {
			return err
		}
		resp, err := pick(cl)(ctx, req)
		if err != nil {
			return err
		}
		r, err := convert.FromBatchResponse(resp)
		if err != nil {
			return err
		}
		for _, m := range r.Messages {
			fmt.Fprintln(os.Stderr, "warning:", m)
		}
		printJSON(map[string]any{"op": r.Op.String(), "applied": r.Applied, "pruned": r.Pruned})
		return nil
	})
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <version-id>...",
		Short: "Delete versions",
		Long:  "Deletes the given versions. Versions kept forever and versions you may not edit are skipped.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, func(cl *grpcserver.HistoryClient) batchCall {
				return func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return cl.DeleteVersions(ctx, in)
				}
			})
		},
	}
}

func newKeepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keep <version-id>...",
		Short: "Toggle keep forever on versions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, func(cl *grpcserver.HistoryClient) batchCall {
				return func(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
					return cl.KeepVersions(ctx, in)
				}
			})
		},
	}
}

func newHashCmd() *cobra.Command {
	var typeID, itemID int64

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the fingerprint of the live item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, cl *grpcserver.HistoryClient) error {
				req, err := convert.ToHashRequest(global.typeAlias, typeID, itemID)
				if err != nil {
					return err
				}
				resp, err := cl.CurrentHash(ctx, req)
				if err != nil {
					return err
				}
				printJSON(map[string]any{
					"hash":  convert.String(resp, convert.FieldHash),
					"found": resp.GetFields()[convert.FieldFound].GetBoolValue(),
				})
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&typeID, "type-id", 0, "content type id (required)")
	cmd.Flags().Int64Var(&itemID, "item", 0, "content item id (required)")
	_ = cmd.MarkFlagRequired("type-id")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

type tokenFlags struct {
	userID    int64
	sessionID string
	key       string
	ttl       time.Duration
}

func newTokenCmd() *cobra.Command {
	var flags tokenFlags

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint and store an access token (operators holding the signing key)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key := flags.key
			if key == "" {
				key = os.Getenv(config.EnvPrefix + "_AUTH_JWT_KEY")
			}
			if key == "" {
				return fmt.Errorf("signing key required: --jwt-key or %s_AUTH_JWT_KEY", config.EnvPrefix)
			}
			tok, err := service.NewTokenService([]byte(key), flags.ttl).Issue(flags.userID, flags.sessionID)
			if err != nil {
				return err
			}
			if err := saveToken(tokenFile{AccessToken: tok.AccessToken, SessionID: tok.SessionID, ExpiresAt: tok.ExpiresAt}); err != nil {
				return err
			}
			printJSON(map[string]any{"session_id": tok.SessionID, "expires_at": tok.ExpiresAt})
			return nil
		},
	}
	cmd.Flags().Int64VarP(&flags.userID, "user", "u", 0, "user id (required)")
	cmd.Flags().StringVar(&flags.sessionID, "session", "", "edit session id (default: new)")
	cmd.Flags().StringVar(&flags.key, "jwt-key", "", "HS256 signing key")
	cmd.Flags().DurationVar(&flags.ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	if len(args) > maxBatch {
		return nil, fmt.Errorf("too many ids (%d > %d)", len(args), maxBatch)
	}
	out := make([]int64, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad version id %q", a)
		}
		out = append(out, n)
	}
	return out, nil
}
