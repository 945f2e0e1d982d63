// calendar
/*
Copyright 2021 Bruce Golden and Matt Spangler

Permission is hereby granted, free of charge, to any person obtaining a copy of
this software and associated documentation files (the "Software"), to deal in
the Software without restriction, including without limitation the rights to
use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
of the Software, and to permit persons to whom the Software is furnished to do
so, subject to the following conditions:
The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
package analyzer

import "fmt"

// DaysPerYear is the length of the simulator's calendar year. Leap years are
// not modelled.
const DaysPerYear = 365

// cumulative day count at the end of each month of a non-leap year
var monthEnds = [12]int{31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

// MonthOfDay maps a day of year to its month. Day 0 belongs to month 12 of
// the previous cycle; days 1..364 are day numbers of a non-leap calendar.
func MonthOfDay(doy int) int {
	if doy == 0 {
		return 12
	}
	for m, end := range monthEnds {
		if doy <= end {
			return m + 1
		}
	}
	return 12
}

// DayFields derives the day of year, month and calendar year of simulation
// day t. The month is read one day ahead, so the last day of each month is
// reported under the next one, except day 0 which closes the previous year.
func DayFields(t, startYear int) (doy, month, year int) {
	doy = t % DaysPerYear
	month = 12
	if doy != 0 {
		month = MonthOfDay((doy + 1) % DaysPerYear)
	}
	year = t/DaysPerYear + startYear
	return doy, month, year
}

// Date is the first of the month, the period key used by monthly tables.
func Date(year, month int) string {
	return fmt.Sprintf("%04d-%02d-01", year, month)
}
