package service

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"seatboard/backend/internal/dto"
	"seatboard/backend/internal/model"
	"seatboard/backend/internal/repository"
)

// ── 座位看板组装 ──────────────────────────────────────────
//
// 看板 = 教室布局 ⋈ 课程座位分配 ⋈ 当天出勤状态，每次读取时现算，不落库。
// ─────────────────────────────────────────────────────────────

// boardComposer 看板组装器，供看板查询、座位分配与院长总览共用
type boardComposer struct {
	repo   *repository.Repository
	store  *recordStore
	policy *AttendancePolicy
	logger *zap.Logger
}

func newBoardComposer(repo *repository.Repository, policy *AttendancePolicy, logger *zap.Logger) *boardComposer {
	return &boardComposer{
		repo:   repo,
		store:  newRecordStore(repo, logger),
		policy: policy,
		logger: logger,
	}
}

// loadRoom 读取教室，不存在时返回 ErrRoomNotFound
func (b *boardComposer) loadRoom(ctx context.Context, academyNumber, roomNumber int) (*model.Room, error) {
	room, err := b.repo.Room.Get(ctx, academyNumber, roomNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// composeForCourse 以课程为中心组装看板
// room 为 nil 时按解析出的教室号读取；上课日会确保出勤记录存在。
func (b *boardComposer) composeForCourse(ctx context.Context, course *model.Course, occ Occurrence, room *model.Room) (*dto.SeatBoardResponse, error) {
	if occ.RoomNumber == nil {
		return nil, ErrRoomNotFound
	}
	if room == nil {
		var err error
		room, err = b.loadRoom(ctx, course.AcademyNumber, *occ.RoomNumber)
		if err != nil {
			return nil, err
		}
	}

	var rec *model.AttendanceRecord
	var err error
	if occ.Active {
		rec, err = b.store.ensureRecord(ctx, course, occ)
		if err != nil {
			return nil, err
		}
	} else {
		rec, err = b.repo.Attendance.Get(ctx, course.ClassID, occ.Date)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	board := b.emptyBoard(room, occ.Date)
	board.ClassID = course.ClassID
	board.CourseName = course.Name
	board.SessionStart = occ.StartTime
	board.SessionEnd = occ.EndTime

	closed := false
	statuses := map[string]model.AttendanceStatus{}
	if rec != nil {
		board.SessionStart = rec.SessionStart
		board.SessionEnd = rec.SessionEnd
		for _, e := range rec.Entries {
			statuses[e.StudentID] = e.Status
		}
		if occ.Active {
			day, perr := ParseDate(occ.Date, b.policy.Location)
			if perr != nil {
				return nil, perr
			}
			start, perr := At(day, rec.SessionStart)
			if perr != nil {
				return nil, perr
			}
			closed = WindowClosed(start, b.policy.now(), b.policy.windowFor(course))
		}
	}

	board.Seats, board.Counts = BuildSeats(room.Seats(), course.SeatsInRoom(room.RoomNumber), func(studentID string) model.AttendanceStatus {
		return EffectiveStatus(statuses[studentID], closed)
	})
	return board, nil
}

// emptyBoard 无课时的教室看板：只有布局，全部座位未占用
func (b *boardComposer) emptyBoard(room *model.Room, date string) *dto.SeatBoardResponse {
	board := &dto.SeatBoardResponse{
		AcademyNumber: room.AcademyNumber,
		RoomNumber:    room.RoomNumber,
		RoomName:      room.Name,
		Date:          date,
		LayoutType:    room.LayoutType,
		LayoutVersion: room.LayoutVersion,
	}
	board.Seats, board.Counts = BuildSeats(room.Seats(), nil, nil)
	return board
}

// BuildSeats 合并布局座位与座位分配并统计人数
//
//   - 布局中没有但分配中存在的标签作为未放置座位（Placed=false）一并输出；
//   - 未占用的可用座位计为 UNRECORDED，未占用的禁用座位不计数；
//   - 按标签排序：纯数字标签按数值升序在前，其余按字典序在后。
func BuildSeats(layout []model.LayoutSeat, seats model.SeatAssignment, status func(studentID string) model.AttendanceStatus) ([]dto.SeatResponse, dto.StatusCounts) {
	out := make([]dto.SeatResponse, 0, len(layout)+len(seats))
	placed := make(map[string]struct{}, len(layout))

	for _, ls := range layout {
		if _, dup := placed[ls.Label]; dup {
			continue
		}
		placed[ls.Label] = struct{}{}
		out = append(out, dto.SeatResponse{
			Label:    ls.Label,
			Disabled: ls.Disabled,
			Placed:   true,
			Row:      ls.Row,
			Col:      ls.Col,
			X:        ls.X,
			Y:        ls.Y,
			W:        ls.W,
			H:        ls.H,
			Rotation: ls.Rotation,
		})
	}
	for label := range seats {
		if _, ok := placed[label]; !ok {
			out = append(out, dto.SeatResponse{Label: label})
		}
	}

	var counts dto.StatusCounts
	for i := range out {
		seat := &out[i]
		seat.Status = string(model.StatusUnrecorded)
		if sid, ok := seats[seat.Label]; ok && sid != "" {
			id := sid
			seat.StudentID = &id
			if status != nil {
				seat.Status = string(status(sid))
			}
		} else if seat.Disabled {
			continue
		}
		counts.Add(seat.Status)
	}

	SortSeats(out)
	return out, counts
}

// SortSeats 纯数字标签按数值升序在前，其余按字典序在后
func SortSeats(seats []dto.SeatResponse) {
	sort.SliceStable(seats, func(i, j int) bool {
		ni, errI := strconv.Atoi(seats[i].Label)
		nj, errJ := strconv.Atoi(seats[j].Label)
		switch {
		case errI == nil && errJ == nil:
			if ni != nj {
				return ni < nj
			}
			return seats[i].Label < seats[j].Label
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return seats[i].Label < seats[j].Label
		}
	})
}
