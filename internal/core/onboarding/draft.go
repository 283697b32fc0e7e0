package onboarding

import (
	"context"
	"time"
)

// Draft は提出前のオンボーディング入力の蓄積です。Data はステップをまたいで
// マージされたフォーム状態で、スキーマ検証を通っていません。
type Draft struct {
	EmployeeID  string
	Data        map[string]any
	CurrentStep int
	UpdatedAt   time.Time
}

// DraftRepository はドラフト永続化の抽象です。
type DraftRepository interface {
	Get(ctx context.Context, employeeID string) (*Draft, error)
	// Save はドラフトを upsert します。
	Save(ctx context.Context, d *Draft) (*Draft, error)
	Delete(ctx context.Context, employeeID string) error
}

// MergePatch は patch を base へ関数的にマージした新しいマップを返します。
// 共有状態は変更しません。patch に存在しないキーは据え置かれ、null 値は
// 明示的なクリアとして扱われます (RFC 7386 のマージパッチ規則)。配列は丸ごと
// 置換されます。
func MergePatch(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}

	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}

		patchObj, patchIsObj := v.(map[string]any)
		baseObj, baseIsObj := merged[k].(map[string]any)
		if patchIsObj && baseIsObj {
			merged[k] = MergePatch(baseObj, patchObj)
			continue
		}

		merged[k] = v
	}

	return merged
}
