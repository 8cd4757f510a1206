package service

import (
	"sort"
	"strings"
	"time"

	"lunchbox/order-svc/internal/domain"
)

// GroupOrdering decides the order of user groups. The zero value sorts by name.
type GroupOrdering struct {
	CurrentUserID string
}

var ByName = GroupOrdering{}

func CurrentUserFirst(userID string) GroupOrdering {
	return GroupOrdering{CurrentUserID: userID}
}

func GroupByUser(lines []domain.OrderLine, ordering GroupOrdering) []domain.UserOrderGroup {
	index := make(map[string]int)
	groups := make([]domain.UserOrderGroup, 0)
	for _, line := range lines {
		i, ok := index[line.UserID]
		if !ok {
			i = len(groups)
			index[line.UserID] = i
			groups = append(groups, domain.UserOrderGroup{
				UserID:    line.UserID,
				UserName:  line.UserName,
				UserEmail: line.UserEmail,
			})
		}
		group := &groups[i]
		group.Lines = append(group.Lines, line)
		group.TotalAmount += line.Amount()
		group.TotalItems += line.Quantity
		if line.IsPaid {
			group.PaidAmount += line.Amount()
		} else {
			group.UnpaidAmount += line.Amount()
		}
	}

	for i := range groups {
		group := &groups[i]
		group.AllPaid = group.UnpaidAmount == 0 && allPaid(group.Lines)
		sort.SliceStable(group.Lines, func(a, b int) bool {
			left, right := group.Lines[a], group.Lines[b]
			if left.Date != right.Date {
				return left.Date < right.Date
			}
			if left.MenuItemName != right.MenuItemName {
				return left.MenuItemName < right.MenuItemName
			}
			return left.ID < right.ID
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if ordering.CurrentUserID != "" {
			iCurrent := groups[i].UserID == ordering.CurrentUserID
			jCurrent := groups[j].UserID == ordering.CurrentUserID
			if iCurrent != jCurrent {
				return iCurrent
			}
		}
		left, right := strings.ToLower(groups[i].UserName), strings.ToLower(groups[j].UserName)
		if left != right {
			return left < right
		}
		return groups[i].UserID < groups[j].UserID
	})
	return groups
}

func allPaid(lines []domain.OrderLine) bool {
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if !line.IsPaid {
			return false
		}
	}
	return true
}

// GroupByMenuItem sums quantities per menu item, most ordered first.
func GroupByMenuItem(lines []domain.OrderLine) []domain.MenuItemSummary {
	index := make(map[string]int)
	summaries := make([]domain.MenuItemSummary, 0)
	for _, line := range lines {
		i, ok := index[line.MenuItemID]
		if !ok {
			i = len(summaries)
			index[line.MenuItemID] = i
			summaries = append(summaries, domain.MenuItemSummary{
				MenuItemID:   line.MenuItemID,
				MenuItemName: line.MenuItemName,
			})
		}
		summary := &summaries[i]
		summary.TotalQuantity += line.Quantity
		summary.TotalAmount += line.Amount()
		summary.Contributors = addContributor(summary.Contributors, line)
	}

	for i := range summaries {
		contributors := summaries[i].Contributors
		sort.SliceStable(contributors, func(a, b int) bool {
			return strings.ToLower(contributors[a].UserName) < strings.ToLower(contributors[b].UserName)
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].TotalQuantity != summaries[j].TotalQuantity {
			return summaries[i].TotalQuantity > summaries[j].TotalQuantity
		}
		return summaries[i].MenuItemName < summaries[j].MenuItemName
	})
	return summaries
}

func addContributor(contributors []domain.Contributor, line domain.OrderLine) []domain.Contributor {
	for i := range contributors {
		if contributors[i].UserID == line.UserID {
			contributors[i].Quantity += line.Quantity
			return contributors
		}
	}
	return append(contributors, domain.Contributor{
		UserID:   line.UserID,
		UserName: line.UserName,
		Quantity: line.Quantity,
	})
}

// WeekDays returns Monday to Friday of the week containing date.
func WeekDays(date time.Time) []string {
	offset := (int(date.Weekday()) + 6) % 7
	monday := date.AddDate(0, 0, -offset)
	days := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		days = append(days, monday.AddDate(0, 0, i).Format(domain.DateLayout))
	}
	return days
}

// WeeklyRollup lays lines out as one row per user and one column per day.
// Lines dated outside days are ignored.
func WeeklyRollup(lines []domain.OrderLine, days []string) domain.WeeklyRollup {
	column := make(map[string]int, len(days))
	for i, day := range days {
		column[day] = i
	}

	rollup := domain.WeeklyRollup{
		Days:      days,
		Rows:      make([]domain.WeeklyRow, 0),
		DayTotals: make([]int64, len(days)),
	}
	rows := make(map[string]int)
	for _, group := range GroupByUser(lines, ByName) {
		for _, line := range group.Lines {
			col, ok := column[line.Date]
			if !ok {
				continue
			}
			r, ok := rows[group.UserID]
			if !ok {
				r = len(rollup.Rows)
				rows[group.UserID] = r
				rollup.Rows = append(rollup.Rows, newWeeklyRow(group, days))
			}
			row := &rollup.Rows[r]
			cell := &row.Cells[col]
			if !cell.HasOrder {
				cell.HasOrder = true
				cell.AllPaid = true
			}
			cell.Items += line.Quantity
			cell.Amount += line.Amount()
			cell.AllPaid = cell.AllPaid && line.IsPaid
			row.Total += line.Amount()
			rollup.DayTotals[col] += line.Amount()
			rollup.GrandTotal += line.Amount()
		}
	}
	return rollup
}

func newWeeklyRow(group domain.UserOrderGroup, days []string) domain.WeeklyRow {
	cells := make([]domain.DayCell, len(days))
	for i, day := range days {
		cells[i] = domain.DayCell{Date: day}
	}
	return domain.WeeklyRow{UserID: group.UserID, UserName: group.UserName, Cells: cells}
}
