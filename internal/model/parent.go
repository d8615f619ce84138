package model

import "fmt"

// ParentType 点赞/评论挂载的父实体类型
type ParentType string

const (
	ParentWorkout ParentType = "WORKOUT"
	ParentRoutine ParentType = "ROUTINE"
	ParentComment ParentType = "COMMENT"
)

// ParseParentType 解析父实体类型
func ParseParentType(s string) (ParentType, error) {
	switch p := ParentType(s); p {
	case ParentWorkout, ParentRoutine, ParentComment:
		return p, nil
	default:
		return "", fmt.Errorf("unknown parent type %q", s)
	}
}

// Reactable reports whether likes may attach to the parent kind.
func (p ParentType) Reactable() bool {
	return p == ParentWorkout || p == ParentRoutine || p == ParentComment
}

// Commentable reports whether comments may attach to the parent kind.
func (p ParentType) Commentable() bool {
	return p == ParentWorkout || p == ParentRoutine
}

// ParentRef 父实体引用：类型标签 + 不透明 id
type ParentRef struct {
	Type ParentType `json:"parentType"`
	ID   string     `json:"parentId"`
}

func (r ParentRef) String() string { return string(r.Type) + ":" + r.ID }
